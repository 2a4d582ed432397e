package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

// Response is the envelope the admin API wraps single resources in.
type Response struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every non-2xx admin API response.
type ErrorResponse struct {
	Message   string              `json:"message"`
	Code      string              `json:"code,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// PageResponse is the body of a paginated list.
type PageResponse[T any] struct {
	Data    []T `json:"data"`
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
}

// NewPageResponse builds a list body; nil data encodes as [].
func NewPageResponse[T any](data []T, page, perPage, total int) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{Data: data, Page: page, PerPage: perPage, Total: total}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Response{Message: msg})
}

// WriteError maps err onto a status and writes an ErrorResponse. Internal
// errors are logged with the request-scoped logger when one is present.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteValidationError(w, r, valErr)
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		WriteJSON(w, appErr.Status, ErrorResponse{
			Message:   appErr.Message,
			Code:      appErr.Code,
			RequestID: requestID,
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	message := http.StatusText(status)
	if status == http.StatusInternalServerError {
		message = "an internal error occurred"
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorResponse{Message: message, RequestID: requestID})
}

// WriteValidationError writes a 422 with per-field messages. The top-level
// message is the first field's message, the way the admin API reports forms.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) {
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Message: err.Error(),
			Code:    "INVALID_INPUT",
		})
		return
	}

	resp := ErrorResponse{
		Message:   "The given data was invalid.",
		Code:      "VALIDATION_ERROR",
		Errors:    make(map[string][]string),
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}
	for _, fe := range valErr.Errors {
		resp.Errors[fe.Field()] = append(resp.Errors[fe.Field()], valErr.Fields()[fe.Field()])
	}
	if len(valErr.Errors) > 0 {
		first := valErr.Errors[0].Field()
		resp.Message = "The " + first + " " + valErr.Fields()[first] + "."
	}
	WriteJSON(w, http.StatusUnprocessableEntity, resp)
}

// ParseID parses a positive integer path parameter. On failure it writes a
// 404, mirroring how the admin API answers unknown ids, and returns false.
func ParseID(w http.ResponseWriter, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Message: "No query results for id " + param,
			Code:    "NOT_FOUND",
		})
		return 0, false
	}
	return id, true
}
