// Package rabbitmq publishes notifications over AMQP 0-9-1 with publisher
// confirms enabled.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// ErrNacked reports a message the broker refused to take responsibility for.
var ErrNacked = errors.New("message nacked by broker")

// Config selects the broker and routing. With an empty Exchange the topic is
// used as the queue name on the default exchange.
type Config struct {
	URL          string
	Exchange     string
	DeclareQueue bool
}

type channel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// Publisher owns one connection and one confirm-mode channel.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger

	mu sync.Mutex
	ch channel
}

// New dials the broker and puts the channel into confirm mode. When
// DeclareQueue is set, durable queues are declared for the given topics.
func New(cfg Config, topics []string, logger *zap.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("bus.rabbitmq.url is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	if cfg.DeclareQueue {
		for _, topic := range topics {
			if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("declare queue %s: %w", topic, err)
			}
		}
	}
	pub := newWithChannel(ch, cfg.Exchange, logger)
	pub.conn = conn
	return pub, nil
}

func newWithChannel(ch channel, exchange string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{ch: ch, exchange: exchange, logger: logger}
}

// Publish sends the notification and waits for the broker confirm.
func (p *Publisher) Publish(ctx context.Context, n pipeline.Notification) error {
	if n.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	msg := amqp.Publishing{
		ContentType:  "text/plain",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"key": n.Key},
		Body:         []byte(n.Value),
	}

	p.mu.Lock()
	if p.ch == nil {
		p.mu.Unlock()
		return fmt.Errorf("publish: %w", amqp.ErrClosed)
	}
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, n.Topic, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	// A nil confirmation means the channel is not in confirm mode.
	if confirm == nil {
		return nil
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return ErrNacked
	}
	p.logger.Debug("notification confirmed", zap.String("routing_key", n.Topic))
	return nil
}

// Close closes the channel and, when owned, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
		p.ch = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		p.conn = nil
	}
	return errors.Join(errs...)
}
