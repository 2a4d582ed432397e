package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/event"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

// UserService exposes the users resource as cached queries and mutations.
type UserService struct {
	repo   repository.UserRepository
	cache  *query.Client
	audit  *event.Producer
	logger *slog.Logger

	create *query.Mutation[domain.CreateUserInput, *domain.User]
	update *query.Mutation[domain.UpdateUserInput, *domain.User]
	remove *query.Mutation[domain.FlexID, struct{}]
}

// NewUserService creates a new user service. audit may be nil.
func NewUserService(repo repository.UserRepository, cache *query.Client, audit *event.Producer, logger *slog.Logger) *UserService {
	s := &UserService{repo: repo, cache: cache, audit: audit, logger: logger}

	s.create = query.NewMutation(cache, func(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
		return s.repo.Create(ctx, in)
	}, query.MutationOptions[domain.CreateUserInput, *domain.User]{
		Invalidate: []query.Key{UsersKey},
		Defaults: query.Callbacks[domain.CreateUserInput, *domain.User]{
			OnSuccess: func(ctx context.Context, u *domain.User, _ domain.CreateUserInput) {
				if u == nil {
					return
				}
				s.logger.InfoContext(ctx, "user created", slog.String("user_id", u.ID.String()))
				if err := s.audit.PublishUserCreated(ctx, u); err != nil {
					s.logger.WarnContext(ctx, "audit user created", slog.String("error", err.Error()))
				}
			},
		},
	})

	s.update = query.NewMutation(cache, func(ctx context.Context, in domain.UpdateUserInput) (*domain.User, error) {
		return s.repo.Update(ctx, in.ID, in)
	}, query.MutationOptions[domain.UpdateUserInput, *domain.User]{
		Invalidate: []query.Key{UsersKey},
		Defaults: query.Callbacks[domain.UpdateUserInput, *domain.User]{
			OnSuccess: func(ctx context.Context, u *domain.User, in domain.UpdateUserInput) {
				if u == nil {
					u = &domain.User{}
				}
				if u.ID.IsZero() {
					u.ID = in.ID
				}
				if u.Status == "" && in.Status != nil {
					u.Status = *in.Status
				}
				s.logger.InfoContext(ctx, "user updated", slog.String("user_id", in.ID.String()))
				if err := s.audit.PublishUserUpdated(ctx, u, isStatusOnly(in)); err != nil {
					s.logger.WarnContext(ctx, "audit user updated", slog.String("error", err.Error()))
				}
			},
		},
	})

	s.remove = query.NewMutation(cache, func(ctx context.Context, id domain.FlexID) (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id)
	}, query.MutationOptions[domain.FlexID, struct{}]{
		Invalidate: []query.Key{UsersKey},
		Defaults: query.Callbacks[domain.FlexID, struct{}]{
			OnSuccess: func(ctx context.Context, _ struct{}, id domain.FlexID) {
				s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id.String()))
				if err := s.audit.PublishUserDeleted(ctx, id); err != nil {
					s.logger.WarnContext(ctx, "audit user deleted", slog.String("error", err.Error()))
				}
			},
		},
	})

	return s
}

// List returns one page of users, cached by the params fingerprint.
func (s *UserService) List(ctx context.Context, params domain.ListParams, opts ...query.QueryOption) (*domain.Page[domain.User], query.State, error) {
	return query.Fetch(ctx, s.cache, UserListKey(params), func(ctx context.Context) (*domain.Page[domain.User], error) {
		return s.repo.List(ctx, params)
	}, opts...)
}

// Get returns one user. An empty id never fetches.
func (s *UserService) Get(ctx context.Context, id domain.FlexID, opts ...query.QueryOption) (*domain.User, query.State, error) {
	opts = append([]query.QueryOption{query.Enabled(!id.IsZero())}, opts...)
	return query.Fetch(ctx, s.cache, UserKey(id), func(ctx context.Context) (*domain.User, error) {
		return s.repo.GetByID(ctx, id)
	}, opts...)
}

// Create validates and creates a user.
func (s *UserService) Create(ctx context.Context, in domain.CreateUserInput, callbacks ...query.Callbacks[domain.CreateUserInput, *domain.User]) (*domain.User, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return s.create.Mutate(ctx, in, callbacks...)
}

// Update validates and applies a partial update.
func (s *UserService) Update(ctx context.Context, in domain.UpdateUserInput, callbacks ...query.Callbacks[domain.UpdateUserInput, *domain.User]) (*domain.User, error) {
	if in.ID.IsZero() {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	return s.update.Mutate(ctx, in, callbacks...)
}

// SetStatus approves or rejects a user.
func (s *UserService) SetStatus(ctx context.Context, id domain.FlexID, status domain.Status, callbacks ...query.Callbacks[domain.UpdateUserInput, *domain.User]) (*domain.User, error) {
	if !domain.IsValidStatus(string(status)) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", status))
	}
	return s.Update(ctx, domain.UpdateUserInput{ID: id, Status: &status}, callbacks...)
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id domain.FlexID, callbacks ...query.Callbacks[domain.FlexID, struct{}]) error {
	if id.IsZero() {
		return apperrors.InvalidInput("user id is required")
	}
	_, err := s.remove.Mutate(ctx, id, callbacks...)
	return err
}

// IsMutating reports whether any user write is in flight.
func (s *UserService) IsMutating() bool {
	return s.create.IsPending() || s.update.IsPending() || s.remove.IsPending()
}

// UpdateState and DeleteState expose the last write outcome.
func (s *UserService) UpdateState() query.MutationState { return s.update.State() }
func (s *UserService) DeleteState() query.MutationState { return s.remove.State() }

func isStatusOnly(in domain.UpdateUserInput) bool {
	return in.Status != nil &&
		in.FirstName == nil && in.LastName == nil && in.Username == nil &&
		in.Phone == nil && in.Role == nil && in.DateOfBirth == nil
}
