// Package rest implements the repositories over the admin REST API.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
)

// Requester sends API requests. *apiclient.Client satisfies it.
type Requester interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Envelope, error)
}

// Resource is the CRUD surface of one API collection. It performs no
// retries, caching or validation.
type Resource[T any] struct {
	client   Requester
	endpoint string
}

// NewResource creates a resource rooted at endpoint, e.g. "users".
func NewResource[T any](client Requester, endpoint string) *Resource[T] {
	return &Resource[T]{client: client, endpoint: strings.Trim(endpoint, "/")}
}

func (r *Resource[T]) path(id domain.FlexID) string {
	return r.endpoint + "/" + url.PathEscape(id.String())
}

// List fetches one page.
func (r *Resource[T]) List(ctx context.Context, params domain.ListParams) (*domain.Page[T], error) {
	return r.ListQuery(ctx, params.Values())
}

// ListQuery fetches one page with a raw query string.
func (r *Resource[T]) ListQuery(ctx context.Context, query url.Values) (*domain.Page[T], error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: r.endpoint, Query: query})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.endpoint, err)
	}
	page, err := decodePage[T](env)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.endpoint, err)
	}
	return page, nil
}

// GetByID fetches one item.
func (r *Resource[T]) GetByID(ctx context.Context, id domain.FlexID) (*T, error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: r.path(id)})
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", r.endpoint, id, err)
	}
	return decodeItem[T](env)
}

// Create posts a new item.
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: r.endpoint, Body: body})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.endpoint, err)
	}
	return decodeItem[T](env)
}

// Update replaces an item.
func (r *Resource[T]) Update(ctx context.Context, id domain.FlexID, body any) (*T, error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPut, Path: r.path(id), Body: body})
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", r.endpoint, id, err)
	}
	return decodeItem[T](env)
}

// Patch partially updates an item.
func (r *Resource[T]) Patch(ctx context.Context, id domain.FlexID, body any) (*T, error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPatch, Path: r.path(id), Body: body})
	if err != nil {
		return nil, fmt.Errorf("patch %s %s: %w", r.endpoint, id, err)
	}
	return decodeItem[T](env)
}

// Remove deletes an item.
func (r *Resource[T]) Remove(ctx context.Context, id domain.FlexID) error {
	if _, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: r.path(id)}); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.endpoint, id, err)
	}
	return nil
}

func decodeItem[T any](env *apiclient.Envelope) (*T, error) {
	var item T
	if err := env.Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// decodePage accepts the paginated object and, from older endpoints, a bare
// array.
func decodePage[T any](env *apiclient.Envelope) (*domain.Page[T], error) {
	page := &domain.Page[T]{}
	raw := bytes.TrimSpace(env.Raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := env.DecodeRaw(&page.Data); err != nil {
			return nil, err
		}
		page.Total = len(page.Data)
		return page, nil
	}
	if err := env.DecodeRaw(page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return page, nil
}
