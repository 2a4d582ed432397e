package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message wins", `{"message":"Phone already taken","error":"conflict"}`, "Phone already taken"},
		{"error string", `{"error":"Token expired"}`, "Token expired"},
		{"error object", `{"error":{"code":"NOT_FOUND","message":"User not found"}}`, "User not found"},
		{"empty message falls through", `{"message":"","error":"bad"}`, "bad"},
		{"no message", `{"data":[]}`, ""},
		{"array body", `[1,2]`, ""},
		{"html", `<html>oops</html>`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMessage([]byte(tt.body)))
		})
	}
}

func TestParseResponseError_BodyMessage(t *testing.T) {
	resErr := ParseResponseError(makeResponse(http.StatusUnprocessableEntity, `{"message":"Invalid OTP code"}`))

	require.NotNil(t, resErr)
	assert.Equal(t, http.StatusUnprocessableEntity, resErr.StatusCode)
	assert.Equal(t, "Invalid OTP code", resErr.Message)
	assert.Equal(t, "Invalid OTP code", resErr.BodyMessage)
	assert.True(t, errors.Is(resErr, apperrors.ErrInvalidInput))
}

func TestParseResponseError_FallsBackToStatusLine(t *testing.T) {
	resErr := ParseResponseError(makeResponse(http.StatusInternalServerError, `<html>boom</html>`))

	assert.Equal(t, "Request failed with status code 500", resErr.Message)
	assert.Empty(t, resErr.BodyMessage)
	assert.Equal(t, "<html>boom</html>", string(resErr.Body))
	assert.True(t, errors.Is(resErr, apperrors.ErrInternal))
}

func TestParseResponseError_Unauthorized(t *testing.T) {
	resErr := ParseResponseError(makeResponse(http.StatusUnauthorized, `{"message":"Unauthenticated."}`))

	assert.True(t, errors.Is(resErr, apperrors.ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(resErr))
}

func TestNewResponseError_NoStatus(t *testing.T) {
	resErr := NewResponseError(0, nil)
	assert.Equal(t, GenericErrorMessage, resErr.Message)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(399))
	assert.False(t, IsClientError(500))
}

func TestResponseError_WithoutAppErrorUnwrapsToNothing(t *testing.T) {
	var err error = &ResponseError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}

	assert.Nil(t, errors.Unwrap(err))

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Nil(t, appErr)
	assert.False(t, errors.Is(err, apperrors.ErrInternal))

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusInternalServerError, respErr.StatusCode)
}
