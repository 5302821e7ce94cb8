// Package events publishes activity entries to an AMQP topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"

	"github.com/streadway/amqp"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// ActivityEvent is the message body of a published activity entry.
type ActivityEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Publisher sends activity events. A Publisher without a broker URL is a
// no-op.
type Publisher struct {
	conn     *amqp.Connection
	open     func() (Channel, error)
	exchange string
	logger   *errors.Logger
}

// NewPublisher dials the broker and declares the exchange. An empty URL
// returns a disabled publisher.
func NewPublisher(cfg config.EventsConfig, logger *errors.Logger) (*Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Debug("Activity events disabled, no broker configured")
		return &Publisher{exchange: cfg.Exchange, logger: logger}, nil
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, errors.NewRemoteError(errors.ErrCodePublishFailed, "could not connect to the event broker", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.NewRemoteError(errors.ErrCodePublishFailed, "could not open a broker channel", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-delete
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		conn.Close()
		return nil, errors.NewRemoteError(errors.ErrCodePublishFailed, "could not declare the activity exchange", err).
			WithContext("exchange", cfg.Exchange)
	}

	p := newPublisher(cfg.Exchange, func() (Channel, error) { return conn.Channel() }, logger)
	p.conn = conn
	logger.Info("Publishing activity events", "exchange", cfg.Exchange)
	return p, nil
}

func newPublisher(exchange string, open func() (Channel, error), logger *errors.Logger) *Publisher {
	return &Publisher{open: open, exchange: exchange, logger: logger}
}

// Enabled reports whether events are actually sent.
func (p *Publisher) Enabled() bool {
	return p.open != nil
}

// PublishActivity sends a to the exchange with routing key activity.<action>.
func (p *Publisher) PublishActivity(ctx context.Context, a types.Activity) error {
	if !p.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ActivityEvent{
		Type:      "activity",
		ID:        a.ID,
		UserID:    a.UserID.String(),
		Action:    a.Action,
		Detail:    a.Detail,
		CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return errors.NewInternalError(errors.ErrCodePublishFailed, "failed to encode activity event", err)
	}

	// Channels are not safe for concurrent use, so each publish gets its own
	ch, err := p.open()
	if err != nil {
		return errors.NewRemoteError(errors.ErrCodePublishFailed, "could not open a broker channel", err)
	}
	defer ch.Close()

	key := RoutingKey(a.Action)
	err = ch.Publish(
		p.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    a.CreatedAt,
			Body:         body,
		},
	)
	if err != nil {
		return errors.NewRemoteError(errors.ErrCodePublishFailed, "failed to publish activity event", err).
			WithContext("routing_key", key)
	}

	p.logger.Debug("Published activity event", "routing_key", key)
	return nil
}

// RoutingKey builds the topic key for an action.
func RoutingKey(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	action = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, action)
	if action == "" {
		action = "unknown"
	}
	return fmt.Sprintf("activity.%s", action)
}

// Close closes the broker connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
