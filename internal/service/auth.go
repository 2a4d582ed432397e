package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/event"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
	"github.com/utafrali/ApartmentAdmin/internal/session"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

const (
	LoginSuccessMessage  = "Login successful!"
	LoginFallbackMessage = "Unable to sign in. Please try again."
)

// AuthService signs the admin in and out.
type AuthService struct {
	repo     repository.AuthRepository
	store    *session.Store
	cache    *query.Client
	notifier apiclient.Notifier
	audit    *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(repo repository.AuthRepository, store *session.Store, cache *query.Client, notifier apiclient.Notifier, audit *event.Producer, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		store:    store,
		cache:    cache,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

// Login authenticates and persists the session. Validation failures never
// reach the network. The returned error carries the inline message via
// LoginErrorMessage.
func (s *AuthService) Login(ctx context.Context, in domain.LoginInput) (*domain.LoginResult, error) {
	if err := s.store.RequireGuest(); err != nil {
		return nil, err
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	res, err := s.repo.Login(ctx, in)
	if err != nil {
		s.logger.WarnContext(ctx, "login failed", slog.String("error", err.Error()))
		notifyError(ctx, s.notifier, LoginErrorMessage(err))
		return nil, err
	}

	if err := s.store.SetCredentials(ctx, res.Token, res.User); err != nil {
		return nil, err
	}
	s.cache.Clear()

	s.logger.InfoContext(ctx, "admin signed in",
		slog.String("user_id", res.User.ID.String()),
		slog.String("role", string(res.User.EffectiveRole())),
	)
	notifySuccess(ctx, s.notifier, firstNonEmpty(res.Message, LoginSuccessMessage))

	if err := s.audit.PublishLogin(ctx, res.User); err != nil {
		s.logger.WarnContext(ctx, "audit login", slog.String("error", err.Error()))
	}
	return res, nil
}

// Logout drops the session and every cached query.
func (s *AuthService) Logout(ctx context.Context) error {
	user, _ := s.store.UserInfo()
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.cache.Clear()

	s.logger.InfoContext(ctx, "admin signed out", slog.String("user_id", user.ID.String()))
	if err := s.audit.PublishLogout(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "audit logout", slog.String("error", err.Error()))
	}
	return nil
}

// LoginErrorMessage is the inline text shown under the login form.
func LoginErrorMessage(err error) string {
	var verr *validator.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	}
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	var nerr *apiclient.NetworkError
	if errors.As(err, &nerr) {
		return apiclient.NetworkErrorMessage
	}
	return LoginFallbackMessage
}
