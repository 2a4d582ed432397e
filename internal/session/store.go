// Package session holds the operator's credentials and UI preferences and
// persists them across runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
)

// Persisted keys.
const (
	KeyToken    = "token"
	KeyUserInfo = "userInfo"
	KeyMode     = "mode"
	KeyLanguage = "language"
)

var (
	// ErrNotAuthenticated is returned by guards when nobody is signed in.
	ErrNotAuthenticated = apperrors.Unauthorized("you are not logged in, run `adminctl login` first")
	// ErrNotAdmin is returned by guards when the signed-in user is not an admin.
	ErrNotAdmin = apperrors.Forbidden("this action requires an admin account")
	// ErrAlreadyAuthenticated is returned by guards on guest-only actions.
	ErrAlreadyAuthenticated = errors.New("already logged in, run `adminctl logout` first")
)

// Store is the credential store: a token and the identity it belongs to.
// Reads are served from memory; every change is written through to storage.
type Store struct {
	storage Storage
	logger  *slog.Logger

	// writeMu orders write-throughs so memory and storage end on the same
	// change.
	writeMu sync.Mutex

	mu    sync.RWMutex
	token string
	user  *domain.SessionUser
}

// NewStore creates an empty store over storage. Call Init to load state.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, logger: logger}
}

// Init loads the persisted session. A missing session is not an error; a
// corrupt identity is dropped with a warning.
func (s *Store) Init(ctx context.Context) error {
	token, _, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	raw, ok, err := s.storage.Get(ctx, KeyUserInfo)
	if err != nil {
		return fmt.Errorf("load session user: %w", err)
	}

	var user *domain.SessionUser
	if ok && raw != "" && raw != "null" {
		var u domain.SessionUser
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.WarnContext(ctx, "ignoring unreadable session user", slog.String("error", err.Error()))
		} else {
			user = &u
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// SetCredentials replaces token and identity together.
func (s *Store) SetCredentials(ctx context.Context, token string, user domain.SessionUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.storage.SetMany(ctx, map[string]string{
		KeyToken:    token,
		KeyUserInfo: string(raw),
	}); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// SetUserInfo refreshes the identity and keeps the token.
func (s *Store) SetUserInfo(ctx context.Context, user domain.SessionUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.storage.Set(ctx, KeyUserInfo, string(raw)); err != nil {
		return fmt.Errorf("persist session user: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Clear signs out. Memory is cleared even when storage fails.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.storage.Remove(ctx, KeyToken, KeyUserInfo); err != nil {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Token returns the bearer token, "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserInfo returns the signed-in identity.
func (s *Store) UserInfo() (domain.SessionUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.SessionUser{}, false
	}
	return *s.user, true
}

// Role is the signed-in role; a missing identity or role counts as user.
func (s *Store) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.RoleUser
	}
	return s.user.EffectiveRole()
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// IsAdmin reports whether the signed-in identity is an admin.
func (s *Store) IsAdmin() bool {
	return s.Role() == domain.RoleAdmin
}

// TokenExpiry reads the exp claim of the token without verifying it.
func (s *Store) TokenExpiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// RequireAuthenticated fails unless someone is signed in.
func (s *Store) RequireAuthenticated() error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireAdmin fails unless an admin is signed in.
func (s *Store) RequireAdmin() error {
	if err := s.RequireAuthenticated(); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// RequireGuest fails when someone is signed in.
func (s *Store) RequireGuest() error {
	if s.IsAuthenticated() {
		return ErrAlreadyAuthenticated
	}
	return nil
}
