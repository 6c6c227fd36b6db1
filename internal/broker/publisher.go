// Package broker publishes activity entries to a RabbitMQ topic exchange
// so other services can follow the marketplace audit trail.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Leganyst/easycars/internal/model"
)

type Publisher struct {
	conn     *amqp.Connection
	exchange string
	log      *zap.Logger

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
	ch *amqp.Channel
}

// Dial connects and declares the durable topic exchange.
func Dial(url, exchange string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Info("connected to rabbitmq", zap.String("exchange", exchange))
	return &Publisher{conn: conn, exchange: exchange, log: log, ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, entry model.ActivityLog) error {
	msg, err := message(entry)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(entry), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", entry.Action, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.log.Warn("close amqp channel", zap.Error(err))
	}
	return p.conn.Close()
}

// RoutingKey is activity.<resource>.<action>, e.g.
// "activity.rental.rental_created".
func RoutingKey(e model.ActivityLog) string {
	rt := string(e.ResourceType)
	if rt == "" {
		rt = string(model.ResourceSystem)
	}
	return "activity." + rt + "." + slug(e.Action)
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func message(e model.ActivityLog) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal activity entry: %w", err)
	}
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    e.ID.String(),
		Timestamp:    ts,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}, nil
}
