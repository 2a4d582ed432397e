package rest

import (
	"context"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
)

// UserRepository implements repository.UserRepository.
type UserRepository struct {
	*Resource[domain.User]
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates the users repository.
func NewUserRepository(client Requester) *UserRepository {
	return &UserRepository{Resource: NewResource[domain.User](client, "users")}
}

func (r *UserRepository) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	return r.Resource.Create(ctx, input)
}

func (r *UserRepository) Update(ctx context.Context, id domain.FlexID, input domain.UpdateUserInput) (*domain.User, error) {
	input.ID = id
	return r.Resource.Update(ctx, id, input)
}

func (r *UserRepository) Delete(ctx context.Context, id domain.FlexID) error {
	return r.Resource.Remove(ctx, id)
}
