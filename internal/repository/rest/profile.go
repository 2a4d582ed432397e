package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
)

// ProfileRepository implements repository.ProfileRepository.
type ProfileRepository struct {
	client Requester
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates the profile repository.
func NewProfileRepository(client Requester) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// userBody matches {"user": {...}} and {"data": {"user": {...}}}.
type userBody struct {
	User *domain.User `json:"user"`
}

func decodeUser(env *apiclient.Envelope) (*domain.User, error) {
	var body userBody
	if err := env.DecodeRaw(&body); err != nil {
		return nil, err
	}
	if body.User == nil {
		if err := env.Decode(&body); err != nil {
			return nil, err
		}
	}
	if body.User == nil {
		var u domain.User
		if err := env.Decode(&u); err != nil {
			return nil, err
		}
		body.User = &u
	}
	return body.User, nil
}

func (r *ProfileRepository) Me(ctx context.Context) (*domain.User, error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "auth/me"})
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	u, err := decodeUser(env)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, input domain.ProfileUpdate) (*domain.User, string, error) {
	env, err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "auth/update-profile",
		Body:   input,
		Silent: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("update profile: %w", err)
	}
	u, err := decodeUser(env)
	if err != nil {
		return nil, "", fmt.Errorf("update profile: %w", err)
	}
	return u, env.Message, nil
}
