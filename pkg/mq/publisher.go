package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys published on the domain exchange.
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingUpdated   = "booking.updated"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingDeleted   = "booking.deleted"
	KeyPaymentPaid      = "payment.paid"
	KeyPaymentFailed    = "payment.failed"
)

// EventPublisher emits domain events. Implementations must be safe for concurrent use.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

// Envelope wraps every event body.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(Envelope{Type: key, OccurredAt: time.Now().UTC(), Data: v})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishJSON(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }

// Connect returns an AMQP publisher, or a NoopPublisher when url is empty.
func Connect(url, exchange string, log *zap.Logger) (EventPublisher, error) {
	if url == "" {
		log.Info("AMQP_URL not set, domain events are disabled")
		return NoopPublisher{}, nil
	}
	p, err := NewPublisher(url, exchange)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to RabbitMQ", zap.String("exchange", exchange))
	return p, nil
}
