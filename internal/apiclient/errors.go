package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"

	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/httpclient"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

// NetworkErrorMessage is shown for every request that got no response.
const NetworkErrorMessage = "Network error. Please check your connection."

// NetworkError is a request that produced no response: a timeout, a dial or
// DNS failure, or a rejection by the open circuit breaker.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{apperrors.ErrNetwork, e.Err}
}

// Timeout reports whether the request ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// UserMessage is the message surfaced to the operator.
func (e *NetworkError) UserMessage() string {
	return NetworkErrorMessage
}

// ServerError is a response with an error status.
type ServerError struct {
	Method   string
	Path     string
	Response *httpclient.ResponseError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Response)
}

func (e *ServerError) Unwrap() error {
	return e.Response
}

// StatusCode is the HTTP status of the response.
func (e *ServerError) StatusCode() int {
	return e.Response.StatusCode
}

// UserMessage is the server message, else the status description.
func (e *ServerError) UserMessage() string {
	return e.Response.Message
}

// Message resolves the user-facing message of any error returned by the
// client layers. It returns "" for a nil error.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.UserMessage()
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.UserMessage()
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return httpclient.GenericErrorMessage
}

// ServerMessage returns the message the server put in the body of an error
// response, or "" when err carries none.
func ServerMessage(err error) string {
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.Response.BodyMessage
	}
	return ""
}

// MessageOr returns the server's own message for err, else fallback.
func MessageOr(err error, fallback string) string {
	if msg := ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}
