package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/ApartmentAdmin/pkg/logger"
)

// CorrelationHeader carries the request id from adminctl to the API and back.
const CorrelationHeader = "X-Correlation-ID"

// RequestLogging writes one access log line per request. The correlation id
// sent by the client is reused and echoed; a new one is minted otherwise.
// 4xx responses log at warn, 5xx at error.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(CorrelationHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			w.Header().Set(CorrelationHeader, correlationID)
			ctx := logger.WithCorrelationID(r.Context(), correlationID)

			rec := record(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.Status()
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			l.Log(ctx, level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", status),
				slog.Int("bytes", rec.bytes),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("accept_language", r.Header.Get("Accept-Language")),
				slog.String("correlation_id", correlationID),
			)
		})
	}
}

// RequestLogger puts a logger for the authenticated caller into the
// context: correlation, user and trace ids plus the caller's role. Mount it
// after RequestLogging, Tracing and Auth.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := base
			if c := ClaimsFromContext(ctx); c != nil {
				ctx = logger.WithUserID(ctx, c.UserID)
				l = l.With(slog.String("role", c.Role))
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, l))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recovery answers a panicking handler with 500 {"message":"Server Error"},
// the body the admin API returns for unexpected failures.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				span := trace.SpanFromContext(ctx)
				span.SetStatus(codes.Error, "panic")
				l.ErrorContext(ctx, "handler panicked",
					slog.Any("panic", rec),
					slog.String("route", routePattern(r)),
					slog.String("path", r.URL.Path),
					slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
					slog.String("stack", string(debug.Stack())),
				)
				writeMessage(w, http.StatusInternalServerError, "Server Error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
