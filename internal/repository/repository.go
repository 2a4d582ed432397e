package repository

import (
	"context"
	"io"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
)

// UserRepository defines the user administration endpoints.
type UserRepository interface {
	// List returns one page of users matching params.
	List(ctx context.Context, params domain.ListParams) (*domain.Page[domain.User], error)

	// GetByID retrieves a single user.
	GetByID(ctx context.Context, id domain.FlexID) (*domain.User, error)

	// Create registers a new user.
	Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error)

	// Update changes the given fields of a user, including its status.
	Update(ctx context.Context, id domain.FlexID, input domain.UpdateUserInput) (*domain.User, error)

	// Delete removes a user.
	Delete(ctx context.Context, id domain.FlexID) error
}

// AuthRepository defines the authentication endpoints. None of them emits a
// notification on its own; callers decide what to show.
type AuthRepository interface {
	Login(ctx context.Context, input domain.LoginInput) (*domain.LoginResult, error)

	// SendOTP, VerifyOTP and ResetPassword return the server's message.
	SendOTP(ctx context.Context, input domain.SendOTPInput) (string, error)
	VerifyOTP(ctx context.Context, input domain.VerifyOTPInput) (string, error)
	ResetPassword(ctx context.Context, input domain.ResetPasswordInput) (string, error)
}

// ProfileRepository defines the endpoints of the signed-in account.
type ProfileRepository interface {
	Me(ctx context.Context) (*domain.User, error)

	// UpdateProfile returns the updated user and the server's message.
	UpdateProfile(ctx context.Context, input domain.ProfileUpdate) (*domain.User, string, error)
}

// NotificationRepository defines the inbox endpoints.
type NotificationRepository interface {
	List(ctx context.Context, page, perPage int) (*domain.Page[domain.Notification], error)
	UnreadCount(ctx context.Context) (int, error)
	MarkAllRead(ctx context.Context) error
	MarkRead(ctx context.Context, id domain.FlexID) error
}

// MediaRepository defines the upload endpoints.
type MediaRepository interface {
	Upload(ctx context.Context, fileName string, content io.Reader) (*domain.Media, error)
	List(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Media], error)
}

// SystemRepository defines the dashboard statistics endpoint.
type SystemRepository interface {
	Data(ctx context.Context) (*domain.SystemData, error)
}
