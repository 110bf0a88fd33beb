package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/shipmate/marketplace/internal/core/domain"
)

// Config captures the settings for the booking event exchange.
type Config struct {
	URL      string
	Exchange string
}

// Publisher emits booking events to a RabbitMQ topic exchange. Routing key is
// the event type ("booking.created" etc.), so the earnings and notification
// consumers each bind only the patterns they care about.
type Publisher struct {
	cfg  Config
	conn *amqp.Connection
	ch   *amqp.Channel
	log  zerolog.Logger
}

// NewPublisher connects, opens a channel, and declares the durable topic
// exchange.
func NewPublisher(cfg Config, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &Publisher{cfg: cfg, conn: conn, ch: ch, log: log}, nil
}

// eventPayload is the wire shape of a booking event.
type eventPayload struct {
	Type               string    `json:"type"`
	BookingID          string    `json:"booking_id"`
	CourierID          string    `json:"courier_id"`
	ShipmentIDs        []string  `json:"shipment_ids"`
	TotalPrice         string    `json:"total_price"`
	PlatformCommission string    `json:"platform_commission"`
	CourierEarnings    string    `json:"courier_earnings"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Emit publishes the event as a persistent JSON message.
func (p *Publisher) Emit(ctx context.Context, event domain.BookingEvent) error {
	if p.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}

	ids := make([]string, len(event.ShipmentIDs))
	for i, id := range event.ShipmentIDs {
		ids[i] = id.String()
	}
	body, err := json.Marshal(eventPayload{
		Type:               string(event.Type),
		BookingID:          event.BookingID.String(),
		CourierID:          event.CourierID.String(),
		ShipmentIDs:        ids,
		TotalPrice:         event.TotalPrice.String(),
		PlatformCommission: event.PlatformCommission.String(),
		CourierEarnings:    event.CourierEarnings.String(),
		OccurredAt:         event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.cfg.Exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish booking event: %w", err)
	}

	p.log.Debug().
		Str("booking_id", event.BookingID.String()).
		Str("routing_key", string(event.Type)).
		Msg("booking event published")
	return nil
}

// IsAlive reports whether both connection and channel are usable.
func (p *Publisher) IsAlive() bool {
	return p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed()
}

func (p *Publisher) Close() error {
	if p.ch != nil && !p.ch.IsClosed() {
		if err := p.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
