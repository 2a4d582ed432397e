package fakeapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/pkg/httputil"
	"github.com/utafrali/ApartmentAdmin/pkg/middleware"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

type loginResponse struct {
	Token   string             `json:"token"`
	User    domain.SessionUser `json:"user"`
	Message string             `json:"message"`
}

type userResponse struct {
	User    domain.User `json:"user"`
	Message string      `json:"message,omitempty"`
}

// decode reads and validates a JSON body, writing the error response on
// failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Message: "invalid request body: " + err.Error(),
			Code:    "INVALID_INPUT",
		})
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, r, err)
		return false
	}
	return true
}

// login handles POST /api/auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginInput
	if !decode(w, r, &in) {
		return
	}

	acc, ok := s.store.accountByPhone(in.Phone)
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(in.Password)) != nil {
		httputil.WriteMessage(w, http.StatusUnauthorized, message(r, msgBadCredentials))
		return
	}

	token, err := s.tokens.Issue(acc.user.ID.String(), acc.user.Phone, string(acc.user.Role))
	if err != nil {
		httputil.WriteError(w, r, err, s.logger)
		return
	}

	s.logger.InfoContext(r.Context(), "login", slog.String("user_id", acc.user.ID.String()))
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:   token,
		User:    acc.user.SessionUser(),
		Message: message(r, msgLoggedIn),
	})
}

// sendOTP handles POST /api/auth/send-otp.
func (s *Server) sendOTP(w http.ResponseWriter, r *http.Request) {
	var in domain.SendOTPInput
	if !decode(w, r, &in) {
		return
	}
	if _, ok := s.store.accountByPhone(in.Phone); !ok {
		httputil.WriteMessage(w, http.StatusNotFound, message(r, msgPhoneUnknown))
		return
	}
	s.store.startOTP(in.Phone, otpTTL)
	httputil.WriteMessage(w, http.StatusOK, message(r, msgOTPSent))
}

// verifyOTP handles POST /api/auth/verify-otp.
func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in domain.VerifyOTPInput
	if !decode(w, r, &in) {
		return
	}
	if in.OTP != s.opts.OTPCode || !s.store.verifyOTP(in.Phone) {
		httputil.WriteMessage(w, http.StatusUnprocessableEntity, message(r, msgOTPInvalid))
		return
	}
	httputil.WriteMessage(w, http.StatusOK, message(r, msgOTPVerified))
}

// resetPassword handles POST /api/auth/reset-password.
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in domain.ResetPasswordInput
	if !decode(w, r, &in) {
		return
	}
	if !s.store.consumeOTP(in.Phone) {
		httputil.WriteMessage(w, http.StatusUnprocessableEntity, message(r, msgOTPRequired))
		return
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		httputil.WriteError(w, r, err, s.logger)
		return
	}
	s.store.setPassword(in.Phone, hash)
	httputil.WriteMessage(w, http.StatusOK, message(r, msgPasswordReset))
}

// me handles GET /api/auth/me.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, ok := s.store.user(domain.FlexID(middleware.UserIDFromContext(r.Context())))
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse{User: u})
}

// updateProfile handles POST /api/auth/update-profile.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileUpdate
	if !decode(w, r, &in) {
		return
	}

	id := domain.FlexID(middleware.UserIDFromContext(r.Context()))
	u, err := s.store.updateUser(id, func(u *domain.User) {
		setIf(&u.FirstName, in.FirstName)
		setIf(&u.LastName, in.LastName)
		setIf(&u.Email, in.Email)
		setIf(&u.Phone, in.Phone)
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse{User: u, Message: message(r, msgProfileUpdated)})
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
