// Package fakeapi is an in-memory implementation of the admin REST API. It
// backs `adminctl mock-server` and the end-to-end tests.
package fakeapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/pkg/health"
	"github.com/utafrali/ApartmentAdmin/pkg/middleware"
)

// Defaults of a fresh backend.
const (
	DefaultAdminPhone    = "963900000000"
	DefaultAdminPassword = "password"
	DefaultOTPCode       = "123456"
	DefaultTokenTTL      = 24 * time.Hour
	otpTTL               = 10 * time.Minute
)

// Options configures a Server. Zero fields take the defaults above.
type Options struct {
	JWTSecret     string
	TokenTTL      time.Duration
	OTPCode       string
	AdminPhone    string
	AdminPassword string
	Apartments    int
	Reservations  int
	// BcryptCost trades hashing time for speed in tests.
	BcryptCost int
	Now        func() time.Time
	Logger     *slog.Logger
}

// Server is the fake backend.
type Server struct {
	opts   Options
	store  *store
	tokens *TokenIssuer
	health *health.Handler
	logger *slog.Logger

	mu    sync.Mutex
	calls map[string]int
}

// New creates a backend seeded with one approved admin.
func New(opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, fmt.Errorf("fakeapi: a JWT secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.OTPCode == "" {
		opts.OTPCode = DefaultOTPCode
	}
	if opts.AdminPhone == "" {
		opts.AdminPhone = DefaultAdminPhone
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = DefaultAdminPassword
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		store:  newStore(opts.Now),
		tokens: NewTokenIssuer(opts.JWTSecret, opts.TokenTTL),
		health: health.NewHandler(),
		logger: opts.Logger,
		calls:  make(map[string]int),
	}
	s.tokens.now = opts.Now
	s.store.apartments = opts.Apartments
	s.store.reservations = opts.Reservations

	hash, err := s.hash(opts.AdminPassword)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.addUser(domain.User{
		FirstName: "System",
		LastName:  "Admin",
		Username:  "admin",
		Phone:     opts.AdminPhone,
		Email:     "admin@example.com",
		Role:      domain.RoleAdmin,
		Status:    domain.StatusApproved,
	}, hash); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return s, nil
}

func (s *Server) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// Health exposes the backend's health handler so callers can register checks.
func (s *Server) Health() *health.Handler {
	return s.health
}

// Calls returns how often a route was hit, keyed "METHOD /pattern", e.g.
// "GET /api/users".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			s.mu.Lock()
			s.calls[r.Method+" "+rc.RoutePattern()]++
			s.mu.Unlock()
		}
	})
}

// Handler returns the routed API, mounted under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestLogging(s.logger))
	r.Use(middleware.Tracing("fakeapi"))
	r.Use(middleware.PrometheusMetrics("fakeapi"))
	r.Use(s.countCalls)

	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Locale(languages...))

		r.Post("/auth/login", s.login)
		r.Post("/auth/send-otp", s.sendOTP)
		r.Post("/auth/verify-otp", s.verifyOTP)
		r.Post("/auth/reset-password", s.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(s.tokens.Validate))
			r.Use(middleware.RequestLogger(s.logger))

			r.Get("/auth/me", s.me)
			r.Post("/auth/update-profile", s.updateProfile)

			r.Get("/notifications", s.listNotifications)
			r.Get("/notifications/unread-count", s.unreadCount)
			r.Post("/notifications/read", s.markAllRead)
			r.Post("/notifications/{id}/read", s.markRead)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(domain.RoleAdmin)))

				r.Get("/users", s.listUsers)
				r.Post("/users", s.createUser)
				r.Get("/users/{id}", s.getUser)
				r.Put("/users/{id}", s.updateUser)
				r.Delete("/users/{id}", s.deleteUser)

				r.Get("/media", s.listMedia)
				r.Post("/media", s.uploadMedia)

				r.Get("/system-data", s.systemData)
			})
		})
	})

	return r
}
