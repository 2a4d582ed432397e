// Package otp implements the three-step password reset: request a code,
// verify it, then set a new password.
package otp

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/event"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

// Step is a state of the flow.
type Step int

const (
	StepRequestCode Step = iota
	StepAwaitingVerification
	StepSetNewPassword
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepRequestCode:
		return "request_code"
	case StepAwaitingVerification:
		return "awaiting_verification"
	case StepSetNewPassword:
		return "set_new_password"
	case StepCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Inline fallbacks used when the server gives no message.
const (
	SendFailedMessage   = "Failed to send OTP. Please try again."
	VerifyFailedMessage = "Invalid OTP code. Please try again."
	ResetFailedMessage  = "Failed to reset password. Please try again."
)

// Success notifications used when the server gives no message.
const (
	SentMessage     = "OTP sent successfully!"
	VerifiedMessage = "OTP verified successfully!"
	ResetMessage    = "Password reset successfully!"
)

var (
	// ErrBusy is returned while another call of the flow is in flight.
	ErrBusy = errors.New("otp: a request is already in progress")
	// ErrWrongStep is returned when an action does not belong to the current step.
	ErrWrongStep = errors.New("otp: action not allowed in the current step")
)

// Flow is one password recovery session. It holds no durable state; a new
// Flow always starts at StepRequestCode.
type Flow struct {
	repo     repository.AuthRepository
	notifier apiclient.Notifier
	audit    *event.Producer
	logger   *slog.Logger

	mu    sync.Mutex
	step  Step
	phone string
	err   string
	busy  bool
}

// NewFlow starts a recovery session. notifier and audit may be nil.
func NewFlow(repo repository.AuthRepository, notifier apiclient.Notifier, audit *event.Producer, logger *slog.Logger) *Flow {
	return &Flow{
		repo:     repo,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		step:     StepRequestCode,
	}
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Phone returns the phone carried forward from the first step. It is fixed
// once a code has been sent.
func (f *Flow) Phone() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phone
}

// Error returns the inline error of the current step, or "".
func (f *Flow) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// DismissError clears the inline error.
func (f *Flow) DismissError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = ""
}

// Busy reports whether a call is in flight; submits are disabled meanwhile.
func (f *Flow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// SendCode requests a code for phone.
func (f *Flow) SendCode(ctx context.Context, phone string) error {
	if err := f.expect(StepRequestCode); err != nil {
		return err
	}
	in := domain.SendOTPInput{Phone: phone}
	if err := validator.Validate(in); err != nil {
		return err
	}
	if err := f.begin(StepRequestCode); err != nil {
		return err
	}

	msg, err := f.repo.SendOTP(ctx, in)
	if err != nil {
		return f.fail(ctx, err, SendFailedMessage)
	}

	f.mu.Lock()
	f.busy = false
	f.phone = phone
	f.step = StepAwaitingVerification
	f.mu.Unlock()

	f.logger.InfoContext(ctx, "otp sent", slog.String("phone", phone))
	notifySuccess(ctx, f.notifier, msg, SentMessage)
	return nil
}

// Verify checks code against the phone of the first step.
func (f *Flow) Verify(ctx context.Context, code string) error {
	if err := f.expect(StepAwaitingVerification); err != nil {
		return err
	}
	in := domain.VerifyOTPInput{Phone: f.Phone(), OTP: code}
	if err := validator.Validate(in); err != nil {
		return err
	}
	if err := f.begin(StepAwaitingVerification); err != nil {
		return err
	}

	msg, err := f.repo.VerifyOTP(ctx, in)
	if err != nil {
		return f.fail(ctx, err, VerifyFailedMessage)
	}

	f.advance(StepSetNewPassword)
	notifySuccess(ctx, f.notifier, msg, VerifiedMessage)
	return nil
}

// ResetPassword sets the new password and completes the flow.
func (f *Flow) ResetPassword(ctx context.Context, password, confirmation string) error {
	if err := f.expect(StepSetNewPassword); err != nil {
		return err
	}
	in := domain.ResetPasswordInput{
		Phone:                f.Phone(),
		Password:             password,
		PasswordConfirmation: confirmation,
	}
	if err := validator.Validate(in); err != nil {
		return err
	}
	if err := f.begin(StepSetNewPassword); err != nil {
		return err
	}

	msg, err := f.repo.ResetPassword(ctx, in)
	if err != nil {
		return f.fail(ctx, err, ResetFailedMessage)
	}

	f.advance(StepCompleted)
	f.logger.InfoContext(ctx, "password reset", slog.String("phone", in.Phone))
	notifySuccess(ctx, f.notifier, msg, ResetMessage)
	if err := f.audit.PublishPasswordReset(ctx, in.Phone); err != nil {
		f.logger.WarnContext(ctx, "audit password reset", slog.String("error", err.Error()))
	}
	return nil
}

// Back returns to the first step and discards all working data.
func (f *Flow) Back() error {
	return f.Reset()
}

// Reset starts the flow over.
func (f *Flow) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	f.step = StepRequestCode
	f.phone = ""
	f.err = ""
	return nil
}

func (f *Flow) expect(want Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	if f.step != want {
		return ErrWrongStep
	}
	return nil
}

// begin claims the flow for one call.
func (f *Flow) begin(want Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	if f.step != want {
		return ErrWrongStep
	}
	f.busy = true
	f.err = ""
	return nil
}

func (f *Flow) advance(next Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.step = next
}

// fail keeps the current step and records the inline message.
func (f *Flow) fail(ctx context.Context, err error, fallback string) error {
	msg := inlineMessage(err, fallback)

	f.mu.Lock()
	f.busy = false
	f.err = msg
	step := f.step
	f.mu.Unlock()

	f.logger.WarnContext(ctx, "otp step failed",
		slog.String("step", step.String()),
		slog.String("error", err.Error()),
	)
	if f.notifier != nil {
		f.notifier.Error(ctx, msg)
	}
	return err
}

// inlineMessage prefers the server's message, then the connection hint,
// then the step's own fallback.
func inlineMessage(err error, fallback string) string {
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) {
		return apiclient.NetworkErrorMessage
	}
	return fallback
}

func notifySuccess(ctx context.Context, n apiclient.Notifier, msg, fallback string) {
	if n == nil {
		return
	}
	if msg == "" {
		msg = fallback
	}
	n.Success(ctx, msg)
}
