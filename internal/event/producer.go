package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/domain"
	pkgkafka "github.com/Abdallah85/Collaborative-Notes-App/pkg/kafka"
)

// Kafka topic constants for auth domain events.
const (
	TopicUserRegistered         = "notes.auth.user_registered"
	TopicPasswordResetRequested = "notes.auth.password_reset_requested"
	TopicPasswordChanged        = "notes.auth.password_changed"
	TopicUserDeleted            = "notes.auth.user_deleted"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the auth service.
const SourceAuthService = "auth-service"

// UserRegisteredData is the payload for a user_registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// PasswordResetRequestedData is the payload for a password_reset_requested
// event. The reset secret is included so the notification consumer can build
// the reset link; it must never appear in logs.
type PasswordResetRequestedData struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	ResetSecret string    `json:"reset_secret"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PasswordChangedData is the payload for a password_changed event.
type PasswordChangedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// UserDeletedData is the payload for a user_deleted event.
type UserDeletedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Producer publishes auth domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user_registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role.String(),
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user_registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user_registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user_registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishPasswordResetRequested publishes a password_reset_requested event
// carrying the plaintext reset secret for the notification consumer.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, user *domain.User, secret string, expiresAt time.Time) error {
	data := PasswordResetRequestedData{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		ResetSecret: secret,
		ExpiresAt:   expiresAt,
	}

	event, err := pkgkafka.NewEvent(TopicPasswordResetRequested, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create password_reset_requested event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPasswordResetRequested, event); err != nil {
		return fmt.Errorf("publish password_reset_requested event: %w", err)
	}

	p.logger.DebugContext(ctx, "published password_reset_requested event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishPasswordChanged publishes a password_changed event.
func (p *Producer) PublishPasswordChanged(ctx context.Context, user *domain.User) error {
	data := PasswordChangedData{
		UserID: user.ID,
		Email:  user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicPasswordChanged, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create password_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPasswordChanged, event); err != nil {
		return fmt.Errorf("publish password_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published password_changed event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishUserDeleted publishes a user_deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, user *domain.User) error {
	data := UserDeletedData{
		UserID: user.ID,
		Email:  user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicUserDeleted, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user_deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserDeleted, event); err != nil {
		return fmt.Errorf("publish user_deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user_deleted event",
		slog.String("user_id", user.ID),
	)

	return nil
}
