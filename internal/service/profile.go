package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/event"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
	"github.com/utafrali/ApartmentAdmin/internal/session"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

const ProfileUpdatedMessage = "Profile updated successfully!"

type profileResult struct {
	user    *domain.User
	message string
}

// ProfileService reads and edits the signed-in account.
type ProfileService struct {
	repo     repository.ProfileRepository
	store    *session.Store
	cache    *query.Client
	notifier apiclient.Notifier
	audit    *event.Producer
	logger   *slog.Logger

	update *query.Mutation[domain.ProfileUpdate, profileResult]
}

// NewProfileService creates a new profile service.
func NewProfileService(repo repository.ProfileRepository, store *session.Store, cache *query.Client, notifier apiclient.Notifier, audit *event.Producer, logger *slog.Logger) *ProfileService {
	s := &ProfileService{
		repo:     repo,
		store:    store,
		cache:    cache,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}

	s.update = query.NewMutation(cache, func(ctx context.Context, in domain.ProfileUpdate) (profileResult, error) {
		u, msg, err := s.repo.UpdateProfile(ctx, in)
		return profileResult{user: u, message: msg}, err
	}, query.MutationOptions[domain.ProfileUpdate, profileResult]{
		Invalidate: []query.Key{ProfileKey},
		Defaults: query.Callbacks[domain.ProfileUpdate, profileResult]{
			OnSuccess: func(ctx context.Context, res profileResult, _ domain.ProfileUpdate) {
				if res.user != nil {
					s.refreshSession(ctx, res.user)
					if err := s.audit.PublishProfileUpdated(ctx, res.user.SessionUser()); err != nil {
						s.logger.WarnContext(ctx, "audit profile updated", slog.String("error", err.Error()))
					}
				}
				s.logger.InfoContext(ctx, "profile updated")
				notifySuccess(ctx, s.notifier, firstNonEmpty(res.message, ProfileUpdatedMessage))
			},
			OnError: func(ctx context.Context, err error, _ domain.ProfileUpdate) {
				notifyError(ctx, s.notifier, apiclient.Message(err))
			},
		},
	})

	return s
}

// Me returns the signed-in account. A network fetch also refreshes the
// identity kept in the session.
func (s *ProfileService) Me(ctx context.Context, opts ...query.QueryOption) (*domain.User, query.State, error) {
	return query.Fetch(ctx, s.cache, ProfileMeKey, func(ctx context.Context) (*domain.User, error) {
		u, err := s.repo.Me(ctx)
		if err != nil {
			return nil, err
		}
		s.refreshSession(ctx, u)
		return u, nil
	}, opts...)
}

// Update validates and saves the profile form.
func (s *ProfileService) Update(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	res, err := s.update.Mutate(ctx, in)
	return res.user, err
}

// IsUpdating reports whether a profile save is in flight.
func (s *ProfileService) IsUpdating() bool {
	return s.update.IsPending()
}

// refreshSession replaces userInfo while keeping the current token.
func (s *ProfileService) refreshSession(ctx context.Context, u *domain.User) {
	if !s.store.IsAuthenticated() {
		return
	}
	if err := s.store.SetUserInfo(ctx, u.SessionUser()); err != nil {
		s.logger.WarnContext(ctx, "refresh session user", slog.String("error", err.Error()))
	}
}
