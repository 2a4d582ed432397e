package domain

// LoginInput is the login form.
type LoginInput struct {
	Phone    string `json:"phone" validate:"required,intl_phone"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token   string      `json:"token"`
	User    SessionUser `json:"user"`
	Message string      `json:"message"`
}

// CreateUserInput is the create-user form.
type CreateUserInput struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Username        string `json:"username,omitempty"`
	Phone           string `json:"phone" validate:"required,local_phone"`
	Password        string `json:"password" validate:"required,min=4"`
	Role            Role   `json:"role" validate:"required,oneof=user admin"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,iso_date"`
	PersonalPhotoID FlexID `json:"personal_photo_id,omitempty"`
	IDPhotoID       FlexID `json:"id_photo_id,omitempty"`
}

// UpdateUserInput carries the fields of a partial user update. ID is sent
// in the body as well as the path, as the admin API expects.
type UpdateUserInput struct {
	ID          FlexID  `json:"id"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Username    *string `json:"username,omitempty"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,local_phone"`
	Role        *Role   `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	Status      *Status `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	DateOfBirth *string `json:"date_of_birth,omitempty" validate:"omitempty,iso_date"`
}

// ProfileUpdate is the profile form of the signed-in admin.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,intl_phone"`
}

// SendOTPInput is the first step of the password reset.
type SendOTPInput struct {
	Phone string `json:"phone" validate:"required,intl_phone"`
}

// VerifyOTPInput is the second step of the password reset.
type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required,intl_phone"`
	OTP   string `json:"otp" validate:"required,otp_code"`
}

// ResetPasswordInput is the last step of the password reset.
type ResetPasswordInput struct {
	Phone                string `json:"phone" validate:"required,intl_phone"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}
