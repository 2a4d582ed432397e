package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
)

// AuthRepository implements repository.AuthRepository. Every call is
// silent: the caller owns the messaging.
type AuthRepository struct {
	client Requester
}

var _ repository.AuthRepository = (*AuthRepository)(nil)

// NewAuthRepository creates the auth repository.
func NewAuthRepository(client Requester) *AuthRepository {
	return &AuthRepository{client: client}
}

func (r *AuthRepository) post(ctx context.Context, path string, body any) (*apiclient.Envelope, error) {
	return r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: path, Body: body, Silent: true})
}

func (r *AuthRepository) Login(ctx context.Context, input domain.LoginInput) (*domain.LoginResult, error) {
	env, err := r.post(ctx, "auth/login", input)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	var result domain.LoginResult
	if err := env.DecodeRaw(&result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if result.Token == "" {
		// Some deployments nest the payload under "data".
		if err := env.Decode(&result); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}
	if result.Message == "" {
		result.Message = env.Message
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login: response carries no token")
	}
	return &result, nil
}

func (r *AuthRepository) SendOTP(ctx context.Context, input domain.SendOTPInput) (string, error) {
	env, err := r.post(ctx, "auth/send-otp", input)
	if err != nil {
		return "", fmt.Errorf("send otp: %w", err)
	}
	return env.Message, nil
}

func (r *AuthRepository) VerifyOTP(ctx context.Context, input domain.VerifyOTPInput) (string, error) {
	env, err := r.post(ctx, "auth/verify-otp", input)
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	return env.Message, nil
}

func (r *AuthRepository) ResetPassword(ctx context.Context, input domain.ResetPasswordInput) (string, error) {
	env, err := r.post(ctx, "auth/reset-password", input)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return env.Message, nil
}
