package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
)

const (
	DefaultNotificationPage    = 1
	DefaultNotificationPerPage = 15
	UnreadPollInterval         = 30 * time.Second
)

// NotificationService drives the admin inbox.
type NotificationService struct {
	repo     repository.NotificationRepository
	cache    *query.Client
	notifier apiclient.Notifier
	logger   *slog.Logger

	markAll  *query.Mutation[struct{}, struct{}]
	markRead *query.Mutation[domain.FlexID, struct{}]
}

// NewNotificationService creates a new notification service. Mark-all-read
// is a silent request, so its failures are published on notifier here.
func NewNotificationService(repo repository.NotificationRepository, cache *query.Client, notifier apiclient.Notifier, logger *slog.Logger) *NotificationService {
	s := &NotificationService{repo: repo, cache: cache, notifier: notifier, logger: logger}

	s.markAll = query.NewMutation(cache, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, s.repo.MarkAllRead(ctx)
	}, query.MutationOptions[struct{}, struct{}]{
		Invalidate: []query.Key{NotificationsKey},
		Defaults: query.Callbacks[struct{}, struct{}]{
			OnError: func(ctx context.Context, err error, _ struct{}) {
				s.logger.WarnContext(ctx, "mark all notifications read failed", slog.String("error", err.Error()))
				notifyError(ctx, s.notifier, apiclient.Message(err))
			},
		},
	})

	s.markRead = query.NewMutation(cache, func(ctx context.Context, id domain.FlexID) (struct{}, error) {
		return struct{}{}, s.repo.MarkRead(ctx, id)
	}, query.MutationOptions[domain.FlexID, struct{}]{Invalidate: []query.Key{NotificationsKey}})

	return s
}

// List returns one page of the inbox. Zero values fall back to page 1 of 15.
func (s *NotificationService) List(ctx context.Context, page, perPage int, opts ...query.QueryOption) (*domain.Page[domain.Notification], query.State, error) {
	if page <= 0 {
		page = DefaultNotificationPage
	}
	if perPage <= 0 {
		perPage = DefaultNotificationPerPage
	}
	return query.Fetch(ctx, s.cache, NotificationListKey(page, perPage), func(ctx context.Context) (*domain.Page[domain.Notification], error) {
		return s.repo.List(ctx, page, perPage)
	}, opts...)
}

// UnreadCount returns the badge counter.
func (s *NotificationService) UnreadCount(ctx context.Context, opts ...query.QueryOption) (int, query.State, error) {
	return query.Fetch(ctx, s.cache, UnreadCountKey, s.repo.UnreadCount, opts...)
}

// WatchUnread refetches the counter every interval until ctx is done and
// reports each result.
func (s *NotificationService) WatchUnread(ctx context.Context, interval time.Duration, report func(count int, err error)) {
	if interval <= 0 {
		interval = UnreadPollInterval
	}
	query.Poll(ctx, interval, func(ctx context.Context) {
		count, _, err := s.UnreadCount(ctx, query.StaleTime(0))
		if ctx.Err() != nil {
			return
		}
		report(count, err)
	})
}

// MarkAllRead marks the whole inbox read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	_, err := s.markAll.Mutate(ctx, struct{}{})
	if err == nil {
		s.logger.InfoContext(ctx, "notifications marked read")
	}
	return err
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, id domain.FlexID) error {
	if id.IsZero() {
		return apperrors.InvalidInput("notification id is required")
	}
	_, err := s.markRead.Mutate(ctx, id)
	return err
}

// Open handles a click on an inbox entry: unread entries are marked read,
// and user-reference entries yield the user to highlight.
func (s *NotificationService) Open(ctx context.Context, n domain.Notification) (domain.FlexID, bool, error) {
	if !n.IsRead() {
		if err := s.MarkRead(ctx, n.ID); err != nil {
			return "", false, err
		}
	}
	id, ok := n.ReferencedUserID()
	return id, ok, nil
}
