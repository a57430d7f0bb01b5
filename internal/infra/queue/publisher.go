package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ticketgate/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topics published for downstream consumers (payout ledger, fraud scoring,
// notifications). Delivery is best-effort and happens after commit; the
// database rows remain the source of truth.
const (
	TopicReservationCreated  = "reservation.created"
	TopicReservationConsumed = "reservation.consumed"
	TopicReservationExpired  = "reservation.expired"
	TopicCheckInRecorded     = "checkin.recorded"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errs.Wrap(err, "failed to connect to AMQP broker")
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errs.Wrap(err, "failed to open AMQP channel")
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, errs.Wrap(err, "failed to declare AMQP exchange")
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "failed to marshal event payload")
	}

	return p.channel.PublishWithContext(ctx, p.exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		slog.Warn("failed to close AMQP channel", "error", err)
	}
	return p.conn.Close()
}

// NoopPublisher is used when AMQP is disabled (local development, tests).
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }
