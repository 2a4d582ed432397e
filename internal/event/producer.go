package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/notify"
	pkgkafka "github.com/utafrali/ApartmentAdmin/pkg/kafka"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
)

// Event type constants for console audit events.
const (
	TypeLogin             = "auth.login"
	TypeLogout            = "auth.logout"
	TypePasswordReset     = "auth.password_reset"
	TypeUserCreated       = "user.created"
	TypeUserUpdated       = "user.updated"
	TypeUserStatusChanged = "user.status_changed"
	TypeUserDeleted       = "user.deleted"
	TypeProfileUpdated    = "profile.updated"
	TypeNotification      = "console.notification"
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeSession = "session"
	AggregateTypeConsole = "console"
)

// SourceAdminConsole identifies events originating from adminctl.
const SourceAdminConsole = "adminctl"

// DefaultTopic is the audit topic used when none is configured.
var DefaultTopic = pkgkafka.Topic("audit")

// Publisher sends an event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// UserData is the payload of user events.
type UserData struct {
	ID     string `json:"id"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

// SessionData is the payload of auth events.
type SessionData struct {
	UserID string `json:"user_id,omitempty"`
	Phone  string `json:"phone"`
	Role   string `json:"role,omitempty"`
}

// NotificationData is the payload of a mirrored console notification.
type NotificationData struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Producer publishes audit events of console actions.
type Producer struct {
	publisher Publisher
	topic     string
	logger    *slog.Logger
}

// NewProducer creates an audit producer writing to topic.
func NewProducer(publisher Publisher, topic string, logger *slog.Logger) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{publisher: publisher, topic: topic, logger: logger}
}

func (p *Producer) publish(ctx context.Context, eventType, aggregateID, aggregateType string, data any) error {
	if p == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, SourceAdminConsole, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if actor := logger.UserIDFromContext(ctx); actor != "" {
		event.WithActor(actor)
	}
	if cmd := logger.CommandFromContext(ctx); cmd != "" {
		event.WithMetadata("command", cmd)
	}

	if err := p.publisher.Publish(ctx, p.topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published audit event",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishLogin records a successful login.
func (p *Producer) PublishLogin(ctx context.Context, user domain.SessionUser) error {
	return p.publish(ctx, TypeLogin, user.ID.String(), AggregateTypeSession, SessionData{
		UserID: user.ID.String(),
		Phone:  user.Phone,
		Role:   string(user.EffectiveRole()),
	})
}

// PublishLogout records a logout.
func (p *Producer) PublishLogout(ctx context.Context, user domain.SessionUser) error {
	return p.publish(ctx, TypeLogout, user.ID.String(), AggregateTypeSession, SessionData{
		UserID: user.ID.String(),
		Phone:  user.Phone,
	})
}

// PublishPasswordReset records a completed OTP password reset.
func (p *Producer) PublishPasswordReset(ctx context.Context, phone string) error {
	return p.publish(ctx, TypePasswordReset, phone, AggregateTypeSession, SessionData{Phone: phone})
}

// PublishUserCreated records a user created from the console.
func (p *Producer) PublishUserCreated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TypeUserCreated, user.ID.String(), AggregateTypeUser, userData(user))
}

// PublishUserUpdated records a user update. Status-only changes are
// recorded as user.status_changed.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User, statusOnly bool) error {
	eventType := TypeUserUpdated
	if statusOnly {
		eventType = TypeUserStatusChanged
	}
	return p.publish(ctx, eventType, user.ID.String(), AggregateTypeUser, userData(user))
}

// PublishUserDeleted records a deletion.
func (p *Producer) PublishUserDeleted(ctx context.Context, id domain.FlexID) error {
	return p.publish(ctx, TypeUserDeleted, id.String(), AggregateTypeUser, UserData{ID: id.String()})
}

// PublishProfileUpdated records an edit of the signed-in admin's profile.
func (p *Producer) PublishProfileUpdated(ctx context.Context, user domain.SessionUser) error {
	return p.publish(ctx, TypeProfileUpdated, user.ID.String(), AggregateTypeSession, SessionData{
		UserID: user.ID.String(),
		Phone:  user.Phone,
		Role:   string(user.EffectiveRole()),
	})
}

func userData(u *domain.User) UserData {
	return UserData{
		ID:     u.ID.String(),
		Phone:  u.Phone,
		Role:   string(u.Role),
		Status: string(u.Status),
	}
}

// NotificationSink mirrors console notifications onto the audit topic.
type NotificationSink struct {
	producer *Producer
}

// NewNotificationSink returns a notify.Sink backed by producer.
func NewNotificationSink(producer *Producer) *NotificationSink {
	return &NotificationSink{producer: producer}
}

var _ notify.Sink = (*NotificationSink)(nil)

// Deliver publishes msg as a console.notification event.
func (s *NotificationSink) Deliver(ctx context.Context, msg notify.Message) error {
	return s.producer.publish(ctx, TypeNotification, string(msg.Level), AggregateTypeConsole, NotificationData{
		Level: string(msg.Level),
		Text:  msg.Text,
	})
}
