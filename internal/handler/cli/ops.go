package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/utafrali/ApartmentAdmin/internal/fakeapi"
	"github.com/utafrali/ApartmentAdmin/pkg/health"
)

// ErrUnhealthy is returned by doctor when a check is down.
var ErrUnhealthy = errors.New("one or more checks failed")

func (c *CLI) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the API, the session backend and the audit broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.console(cmd)
			if err != nil {
				return err
			}
			res := a.Health.Check(cmd.Context())

			out := cmd.OutOrStdout()
			tw := table(out)
			fmt.Fprintln(tw, "CHECK\tSTATUS\tTIME\tERROR")
			for _, name := range res.Names() {
				r := res.Checks[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, r.Status, r.Duration.Round(time.Millisecond), orDash(r.Error))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			signedIn := "no"
			if u, ok := a.Session.UserInfo(); ok && a.Session.IsAuthenticated() {
				signedIn = fmt.Sprintf("%s (%s)", orDash(u.Name), u.EffectiveRole())
				if exp, ok := a.Session.TokenExpiry(); ok && time.Now().After(exp) {
					signedIn += ", token expired"
				}
			}
			fmt.Fprintf(out, "Signed in: %s\n", signedIn)

			if res.Status == health.StatusDown {
				return ErrUnhealthy
			}
			return nil
		},
	}
}

func (c *CLI) mockServerCommand() *cobra.Command {
	var (
		port int
		opts fakeapi.Options
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory admin API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.JWTSecret = c.cfg.MockJWTSecret
			opts.Logger = c.logger
			srv, err := fakeapi.New(opts)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.Handle("/", srv.Handler())

			httpServer := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      mux,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}
			return serve(cmd.Context(), httpServer, c.logger)
		},
	}
	f := cmd.Flags()
	f.IntVar(&port, "port", c.cfg.MockServerPort, "port to listen on")
	f.StringVar(&opts.AdminPhone, "admin-phone", fakeapi.DefaultAdminPhone, "phone of the seeded admin")
	f.StringVar(&opts.AdminPassword, "admin-password", fakeapi.DefaultAdminPassword, "password of the seeded admin")
	f.StringVar(&opts.OTPCode, "otp-code", fakeapi.DefaultOTPCode, "code accepted by verify-otp")
	f.DurationVar(&opts.TokenTTL, "token-ttl", fakeapi.DefaultTokenTTL, "lifetime of issued tokens")
	f.IntVar(&opts.Apartments, "apartments", 0, "apartments count reported by system-data")
	f.IntVar(&opts.Reservations, "reservations", 0, "reservations count reported by system-data")
	return cmd
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting mock admin API", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown mock admin API: %w", err)
	}
	logger.Info("mock admin API stopped")
	return nil
}
