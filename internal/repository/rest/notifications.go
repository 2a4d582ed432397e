package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
)

// NotificationRepository implements repository.NotificationRepository.
// Payloads are normalized by domain.NotificationData while decoding.
type NotificationRepository struct {
	*Resource[domain.Notification]
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

// NewNotificationRepository creates the notifications repository.
func NewNotificationRepository(client Requester) *NotificationRepository {
	return &NotificationRepository{Resource: NewResource[domain.Notification](client, "notifications")}
}

func (r *NotificationRepository) List(ctx context.Context, page, perPage int) (*domain.Page[domain.Notification], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("perPage", strconv.Itoa(perPage))
	}
	return r.ListQuery(ctx, q)
}

func (r *NotificationRepository) UnreadCount(ctx context.Context) (int, error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "notifications/unread-count"})
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	n, err := parseCount(env.Raw)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context) error {
	_, err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "notifications/read",
		Body:   struct{}{},
		Silent: true,
	})
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id domain.FlexID) error {
	_, err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   r.path(id) + "/read",
		Body:   struct{}{},
	})
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// parseCount reads a count sent as a bare number, as {"count": n},
// {"unread_count": n} or either of those under "data".
func parseCount(raw []byte) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, nil
	}

	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		v, err := n.Int64()
		return int(v), err
	}

	var body struct {
		Count       *int            `json:"count"`
		UnreadCount *int            `json:"unread_count"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, fmt.Errorf("decode count: %w", err)
	}
	switch {
	case body.Count != nil:
		return *body.Count, nil
	case body.UnreadCount != nil:
		return *body.UnreadCount, nil
	case len(body.Data) > 0 && !bytes.Equal(body.Data, []byte("null")):
		return parseCount(body.Data)
	}
	return 0, nil
}
