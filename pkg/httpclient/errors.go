package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
)

const maxBodyBytes = 4 << 20

// GenericErrorMessage is shown when nothing better describes a failure.
const GenericErrorMessage = "An error occurred"

// ResponseError describes a non-2xx response from the admin API.
type ResponseError struct {
	StatusCode int
	// Message is the resolved user-facing message.
	Message string
	// BodyMessage is the message found in the body, if any.
	BodyMessage string
	Body        []byte
	Err         *apperrors.AppError
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the mapped AppError. A ResponseError built without one
// unwraps to nothing rather than to a typed nil.
func (e *ResponseError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// ReadBody drains and closes resp.Body, reading at most 4 MiB.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// ExtractMessage returns the human-readable message carried by an admin API
// body: the "message" member, else the "error" member (either a string or an
// object with its own "message"). It returns "" when the body has neither.
func ExtractMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return ""
	}

	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}

	if msg := asString(payload.Message); msg != "" {
		return msg
	}
	if msg := asString(payload.Error); msg != "" {
		return msg
	}

	var nested struct {
		Message string `json:"message"`
	}
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}

func asString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// StatusMessage is the transport-level description of a failed status.
func StatusMessage(status int) string {
	return fmt.Sprintf("Request failed with status code %d", status)
}

// ParseResponseError reads the body of a non-2xx response and resolves its
// message: body "message", then body "error", then the status line. The
// response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) *ResponseError {
	body, err := ReadBody(resp)
	if err != nil {
		body = nil
	}
	return NewResponseError(resp.StatusCode, body)
}

// NewResponseError builds a ResponseError from an already-read body.
func NewResponseError(status int, body []byte) *ResponseError {
	bodyMsg := ExtractMessage(body)
	msg := bodyMsg
	if msg == "" && status > 0 {
		msg = StatusMessage(status)
	}
	if msg == "" {
		msg = GenericErrorMessage
	}

	return &ResponseError{
		StatusCode:  status,
		Message:     msg,
		BodyMessage: bodyMsg,
		Body:        body,
		Err:         apperrors.FromStatus(status, msg),
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
