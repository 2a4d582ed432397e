// Package apiclient is the single outbound channel to the admin API. It
// attaches auth and locale headers, normalizes the response envelope,
// classifies failures and surfaces messages as notifications.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/utafrali/ApartmentAdmin/pkg/httpclient"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
	"github.com/utafrali/ApartmentAdmin/pkg/tracing"
)

// DefaultTimeout bounds every call.
const DefaultTimeout = 30 * time.Second

// DefaultLanguage is sent when no locale is configured.
const DefaultLanguage = "en"

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// TokenSource yields the current bearer token, "" when signed out. It is
// read at send time on every request.
type TokenSource interface {
	Token() string
}

// LocaleSource yields the current UI language.
type LocaleSource interface {
	Language() string
}

// Notifier shows transient messages. It must not block.
type Notifier interface {
	Success(ctx context.Context, text string)
	Error(ctx context.Context, text string)
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Tokens   TokenSource
	Locale   LocaleSource
	Notifier Notifier
	// Limiter throttles outbound requests when set.
	Limiter *rate.Limiter
	// OnUnauthorized runs after a 401 response. Nil leaves the session alone.
	OnUnauthorized func(ctx context.Context)
	Logger         *slog.Logger
	Timeout        time.Duration
}

// FilePart is a file sent as multipart/form-data.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// Request describes one API call. Path is relative to the base URL.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Multipart *FilePart
	// Silent suppresses both success and error notifications.
	Silent bool
}

// Envelope is the normalized response body.
type Envelope struct {
	StatusCode int
	Message    string
	// Data is the "data" member when present, else the whole body.
	Data json.RawMessage
	Raw  json.RawMessage
}

// Decode unmarshals Data into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// DecodeRaw unmarshals the whole body into v.
func (e *Envelope) DecodeRaw(v any) error {
	if len(e.Raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Client talks to the admin API.
type Client struct {
	doer     HTTPDoer
	base     *url.URL
	tokens   TokenSource
	locale   LocaleSource
	notifier Notifier
	limiter  *rate.Limiter
	onUnauth func(ctx context.Context)
	logger   *slog.Logger
	timeout  time.Duration
	tracer   trace.Tracer
}

// New creates a client sending requests through doer.
func New(doer HTTPDoer, opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		doer:     doer,
		base:     base,
		tokens:   opts.Tokens,
		locale:   opts.Locale,
		notifier: opts.Notifier,
		limiter:  opts.Limiter,
		onUnauth: opts.OnUnauthorized,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		tracer:   tracing.Tracer("adminctl/apiclient"),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Get issues a GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Upload posts a file as multipart/form-data.
func (c *Client) Upload(ctx context.Context, path string, file FilePart) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Multipart: &file})
}

// Do sends req and returns the normalized envelope. Failures are returned as
// *NetworkError or *ServerError after the error notification is published.
func (c *Client) Do(ctx context.Context, req Request) (*Envelope, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "apiclient "+req.Method+" "+req.Path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	env, err := c.do(ctx, req)

	status := 0
	var srvErr *ServerError
	switch {
	case env != nil:
		status = env.StatusCode
	case errors.As(err, &srvErr):
		status = srvErr.StatusCode()
	}
	requestsTotal.WithLabelValues(req.Method, statusClass(status)).Inc()
	requestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path),
		attribute.Int("http.response.status_code", status),
	)

	log := logger.WithContext(ctx, c.logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Message(err))
		log.WarnContext(ctx, "admin api request failed",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("status", status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("error", err.Error()),
		)
		if !req.Silent {
			c.notifyError(ctx, Message(err))
		}
		if status == http.StatusUnauthorized && c.onUnauth != nil {
			c.onUnauth(ctx)
		}
		return nil, err
	}

	log.DebugContext(ctx, "admin api request",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", status),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	if !req.Silent && env.Message != "" {
		c.notifySuccess(ctx, env.Message)
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Envelope, error) {
	target := c.resolve(req.Path, req.Query)

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", req.Method, req.Path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", req.Method, req.Path, err)
	}
	c.setHeaders(ctx, httpReq, contentType)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
		}
	}

	resp, err := c.doer.Do(ctx, httpReq)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
	}

	raw, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: target, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &ServerError{
			Method:   req.Method,
			Path:     req.Path,
			Response: httpclient.NewResponseError(resp.StatusCode, raw),
		}
	}
	return newEnvelope(resp.StatusCode, raw), nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, contentType string) {
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	lang := ""
	if c.locale != nil {
		lang = c.locale.Language()
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	req.Header.Set("Accept-Language", lang)

	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	correlationID := logger.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	req.Header.Set("X-Correlation-ID", correlationID)

	tracing.InjectHeaders(ctx, req.Header)
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.Multipart != nil {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		field := req.Multipart.Field
		if field == "" {
			field = "file"
		}
		part, err := w.CreateFormFile(field, req.Multipart.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, req.Multipart.Content); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}

	if req.Body == nil {
		return nil, "application/json", nil
	}
	b, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(b), "application/json", nil
}

func newEnvelope(status int, raw []byte) *Envelope {
	env := &Envelope{StatusCode: status}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return env
	}
	env.Raw = raw

	var body struct {
		Message json.RawMessage `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if raw[0] != '{' || json.Unmarshal(raw, &body) != nil {
		env.Data = raw
		return env
	}
	_ = json.Unmarshal(body.Message, &env.Message)
	if len(body.Data) > 0 && !bytes.Equal(body.Data, []byte("null")) {
		env.Data = body.Data
	} else {
		env.Data = raw
	}
	return env
}

func (c *Client) notifySuccess(ctx context.Context, text string) {
	if c.notifier != nil {
		c.notifier.Success(ctx, text)
	}
}

func (c *Client) notifyError(ctx context.Context, text string) {
	if c.notifier != nil {
		c.notifier.Error(ctx, text)
	}
}
