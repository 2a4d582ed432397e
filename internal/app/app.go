// Package app wires the console together: session storage, notification
// sinks, the API client, the query cache and the services built on them.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/config"
	"github.com/utafrali/ApartmentAdmin/internal/event"
	"github.com/utafrali/ApartmentAdmin/internal/notify"
	"github.com/utafrali/ApartmentAdmin/internal/otp"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
	"github.com/utafrali/ApartmentAdmin/internal/repository/rest"
	"github.com/utafrali/ApartmentAdmin/internal/service"
	"github.com/utafrali/ApartmentAdmin/internal/session"
	"github.com/utafrali/ApartmentAdmin/internal/userlist"
	"github.com/utafrali/ApartmentAdmin/pkg/database"
	"github.com/utafrali/ApartmentAdmin/pkg/health"
	"github.com/utafrali/ApartmentAdmin/pkg/httpclient"
	pkgkafka "github.com/utafrali/ApartmentAdmin/pkg/kafka"
	"github.com/utafrali/ApartmentAdmin/pkg/tracing"
)

// ServiceName tags logs, traces and audit events.
const ServiceName = "adminctl"

// Options overrides parts of the wiring. Zero fields use the configured
// defaults.
type Options struct {
	// Out receives notifications as terminal lines. Nil sends them to the
	// log instead.
	Out io.Writer
	// Storage replaces the configured session backend.
	Storage session.Storage
	// Doer replaces the HTTP transport.
	Doer apiclient.HTTPDoer
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// App holds every wired component of the console.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	Session *session.Store
	Prefs   *session.Prefs
	Bus     *notify.Bus
	API     *apiclient.Client
	Cache   *query.Client
	Audit   *event.Producer
	Health  *health.Handler

	Auth          *service.AuthService
	Users         *service.UserService
	Profile       *service.ProfileService
	Notifications *service.NotificationService
	Media         *service.MediaService
	System        *service.SystemService

	authRepo repository.AuthRepository
	closers  []closer
}

// New builds the console from cfg and loads the persisted session.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{cfg: cfg, logger: logger, Health: health.NewHandler()}

	if err := a.initTracing(ctx); err != nil {
		return nil, err
	}

	storage := opts.Storage
	if storage == nil {
		s, err := a.openStorage(ctx)
		if err != nil {
			a.shutdown(ctx)
			return nil, err
		}
		storage = s
	}

	a.Session = session.NewStore(storage, logger)
	if err := a.Session.Init(ctx); err != nil {
		a.shutdown(ctx)
		return nil, fmt.Errorf("load session: %w", err)
	}
	a.Prefs = session.NewPrefs(storage, logger)
	if err := a.Prefs.Init(ctx); err != nil {
		a.shutdown(ctx)
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	a.initAudit()

	// Notifications go to the terminal when there is one, else to the log.
	var sinks []notify.Sink
	if opts.Out != nil {
		sinks = append(sinks, notify.NewWriterSink(opts.Out))
	} else {
		sinks = append(sinks, notify.NewLogSink(logger))
	}
	if a.Audit != nil {
		sinks = append(sinks, event.NewNotificationSink(a.Audit))
	}
	a.Bus = notify.NewBus(logger, sinks...)
	a.onClose("notifications", func(context.Context) error {
		a.Bus.Close()
		return nil
	})

	retry := cfg.QueryRetry
	if retry == 0 {
		retry = -1
	}
	a.Cache = query.NewClient(query.Options{
		StaleTime: cfg.QueryStaleTime,
		GCTime:    cfg.QueryGCTime,
		Retry:     retry,
		Logger:    logger,
	})

	doer := opts.Doer
	if doer == nil {
		doer = a.transport()
	}
	api, err := apiclient.New(doer, apiclient.Options{
		BaseURL:        cfg.APIBaseURL,
		Tokens:         a.Session,
		Locale:         a.Prefs,
		Notifier:       a.Bus,
		Limiter:        a.limiter(),
		OnUnauthorized: a.unauthorizedHook(),
		Logger:         logger,
		Timeout:        cfg.HTTPTimeout,
	})
	if err != nil {
		a.shutdown(ctx)
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.API = api
	a.Health.Register("admin-api", apiChecker(doer, api.BaseURL()))

	a.authRepo = rest.NewAuthRepository(api)
	a.Auth = service.NewAuthService(a.authRepo, a.Session, a.Cache, a.Bus, a.Audit, logger)
	a.Users = service.NewUserService(rest.NewUserRepository(api), a.Cache, a.Audit, logger)
	a.Profile = service.NewProfileService(rest.NewProfileRepository(api), a.Session, a.Cache, a.Bus, a.Audit, logger)
	a.Notifications = service.NewNotificationService(rest.NewNotificationRepository(api), a.Cache, a.Bus, logger)
	a.Media = service.NewMediaService(rest.NewMediaRepository(api), a.Cache, logger)
	a.System = service.NewSystemService(rest.NewSystemRepository(api), a.Cache)

	logger.Debug("console initialized",
		slog.String("api", api.BaseURL()),
		slog.String("session_backend", cfg.SessionBackend),
		slog.Bool("authenticated", a.Session.IsAuthenticated()),
	)
	return a, nil
}

func (a *App) initTracing(ctx context.Context) error {
	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    a.cfg.Environment,
		OTLPEndpoint:   a.cfg.OTELEndpoint,
		SampleRate:     a.cfg.OTELSampleRate,
		Enabled:        a.cfg.OTELEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.onClose("tracing", shutdown)
	return nil
}

func (a *App) openStorage(ctx context.Context) (session.Storage, error) {
	switch a.cfg.SessionBackend {
	case config.SessionBackendMemory:
		return session.NewMemoryStorage(), nil
	case config.SessionBackendRedis:
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:        a.cfg.RedisHost,
			Port:        a.cfg.RedisPort,
			Password:    a.cfg.RedisPassword,
			DB:          a.cfg.RedisDB,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis session backend: %w", err)
		}
		a.Health.Register("session-redis", database.RedisChecker(client))
		a.onClose("redis", func(context.Context) error { return client.Close() })
		return session.NewRedisStorage(client, a.cfg.SessionRedisPrefix, 0), nil
	default:
		return session.NewFileStorage(a.cfg.SessionFile), nil
	}
}

func (a *App) initAudit() {
	if !a.cfg.KafkaEnabled {
		return
	}
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.Audit = event.NewProducer(producer, a.cfg.KafkaAuditTopic, a.logger)
	a.Health.Register("kafka", producer.Ping)
	a.onClose("kafka", func(context.Context) error { return producer.Close() })
	a.logger.Debug("kafka audit producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))
}

func (a *App) transport() apiclient.HTTPDoer {
	hc := httpclient.New(httpclient.Config{
		Timeout:         a.cfg.HTTPTimeout,
		MaxConnsPerHost: httpclient.DefaultConfig().MaxConnsPerHost,
		UserAgent:       ServiceName,
	})
	if !a.cfg.CBEnabled {
		return hc
	}
	return httpclient.NewCircuitBreakerClient(hc, httpclient.DefaultCircuitBreakerConfig("admin-api"), a.logger)
}

func (a *App) limiter() *rate.Limiter {
	if a.cfg.RateLimitRPS <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(a.cfg.RateLimitRPS), max(a.cfg.RateLimitBurst, 1))
}

// unauthorizedHook signs the operator out after a 401 when enabled.
func (a *App) unauthorizedHook() func(ctx context.Context) {
	if !a.cfg.LogoutOn401 {
		return nil
	}
	return func(ctx context.Context) {
		if !a.Session.IsAuthenticated() {
			return
		}
		if err := a.Session.Clear(ctx); err != nil {
			a.logger.WarnContext(ctx, "clear session after 401", slog.String("error", err.Error()))
		}
		a.Cache.Clear()
		a.logger.InfoContext(ctx, "signed out after unauthorized response")
	}
}

// apiChecker treats any HTTP response from the API as reachable.
func apiChecker(doer apiclient.HTTPDoer, baseURL string) health.Checker {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return err
		}
		resp, err := doer.Do(ctx, req)
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Body.Close()
	}
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// NewPasswordReset starts a fresh OTP password-reset flow.
func (a *App) NewPasswordReset() *otp.Flow {
	return otp.NewFlow(a.authRepo, a.Bus, a.Audit, a.logger)
}

// NewUserList returns a users table controller.
func (a *App) NewUserList() *userlist.Controller {
	return userlist.New(a.Users, a.logger)
}

// ServeMetrics exposes /metrics on the configured address until ctx is done.
// It returns immediately when no address is configured.
func (a *App) ServeMetrics(ctx context.Context) error {
	if a.cfg.MetricsAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving metrics", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) onClose(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *App) shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.logger.Error("shutdown error", slog.String("component", c.name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Close delivers pending notifications and releases every connection.
func (a *App) Close(ctx context.Context) error {
	return a.shutdown(ctx)
}
