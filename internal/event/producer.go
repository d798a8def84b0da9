package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/platefull/platefull/pkg/kafka"

	"github.com/platefull/platefull/internal/domain"
)

// Kafka topic constants for user domain events.
const (
	TopicUserRegistered = "platefull.user.registered"
	TopicUserVerified   = "platefull.user.verified"
	TopicUserUpdated    = "platefull.user.updated"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this API.
const SourceAPI = "platefull-api"

// UserRegisteredData is the payload for a user.registered event. It carries
// the verification code so the notification pipeline can send the
// verification email.
type UserRegisteredData struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	VerificationCode string `json:"verification_code"`
}

// UserVerifiedData is the payload for a user.verified event.
type UserVerifiedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserUpdatedData is the payload for a user.updated event. VerificationCode
// is set only when the email changed and a new code was issued.
type UserUpdatedData struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User, code string) error {
	data := UserRegisteredData{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		VerificationCode: code,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishUserVerified publishes a user.verified event.
func (p *Producer) PublishUserVerified(ctx context.Context, user *domain.User) error {
	data := UserVerifiedData{
		ID:    user.ID,
		Email: user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicUserVerified, user.ID, AggregateTypeUser, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.verified event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserVerified, event); err != nil {
		return fmt.Errorf("publish user.verified event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.verified event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishUserUpdated publishes a user.updated event. A non-empty code means
// the email changed and must be re-verified.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User, code string) error {
	data := UserUpdatedData{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		VerificationCode: code,
	}

	event, err := pkgkafka.NewEvent(TopicUserUpdated, user.ID, AggregateTypeUser, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserUpdated, event); err != nil {
		return fmt.Errorf("publish user.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.updated event",
		slog.String("user_id", user.ID),
	)

	return nil
}
