package domain

import (
	"strings"
	"time"
)

// User is a resident account as returned by the admin API.
type User struct {
	ID            FlexID     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Username      string     `json:"username,omitempty"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email,omitempty"`
	DateOfBirth   string     `json:"date_of_birth,omitempty"`
	Role          Role       `json:"role"`
	Status        Status     `json:"status"`
	PersonalPhoto *Media     `json:"personal_photo,omitempty"`
	IDPhoto       *Media     `json:"id_photo,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsVerified reports whether the account has been verified.
func (u *User) IsVerified() bool {
	return u.VerifiedAt != nil
}

// SessionUser projects the user onto the identity kept in the session.
func (u *User) SessionUser() SessionUser {
	return SessionUser{
		ID:        u.ID,
		Name:      u.FullName(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
	}
}

// SessionUser is the identity stored next to the token.
type SessionUser struct {
	ID        FlexID `json:"id"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// EffectiveRole returns the role, treating a missing one as RoleUser.
func (s SessionUser) EffectiveRole() Role {
	if s.Role == "" {
		return RoleUser
	}
	return s.Role
}

// DisplayName is the best available human label for the user.
func (s SessionUser) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if n := strings.TrimSpace(s.FirstName + " " + s.LastName); n != "" {
		return n
	}
	if s.Phone != "" {
		return s.Phone
	}
	return s.ID.String()
}
