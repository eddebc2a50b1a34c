// Package kafka publishes notifications with confluent-kafka-go.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

const defaultFlushTimeout = 15 * time.Second

// ErrFlushTimeout reports messages still queued when the flush deadline passed.
var ErrFlushTimeout = errors.New("kafka flush timed out")

type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Events() chan kafka.Event
	Close()
}

// Publisher produces one message per notification and flushes before
// returning, so a nil error means the broker acknowledged the message.
type Publisher struct {
	producer     producer
	flushTimeout time.Duration
	logger       *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a producer from librdkafka settings, usually the contents of
// client.properties.
func New(settings map[string]string, flushTimeout time.Duration, logger *zap.Logger) (*Publisher, error) {
	if len(settings) == 0 {
		return nil, fmt.Errorf("kafka producer settings are required")
	}
	cfg := make(kafka.ConfigMap, len(settings))
	for k, v := range settings {
		cfg[k] = v
	}
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newWithProducer(p, flushTimeout, logger), nil
}

func newWithProducer(p producer, flushTimeout time.Duration, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if flushTimeout <= 0 {
		flushTimeout = defaultFlushTimeout
	}
	pub := &Publisher{
		producer:     p,
		flushTimeout: flushTimeout,
		logger:       logger,
		done:         make(chan struct{}),
	}
	go pub.drainEvents()
	return pub
}

// drainEvents logs client-level events so the events channel never fills.
// Per-message delivery reports go to the channel passed to Produce.
func (p *Publisher) drainEvents() {
	events := p.producer.Events()
	for {
		select {
		case <-p.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case kafka.Error:
				p.logger.Warn("kafka client error", zap.String("code", e.Code().String()), zap.Error(e))
			case *kafka.Message:
				if e.TopicPartition.Error != nil {
					p.logger.Warn("kafka delivery failed", zap.Error(e.TopicPartition.Error))
				}
			default:
				p.logger.Debug("kafka event", zap.String("event", ev.String()))
			}
		}
	}
}

// Publish produces the message, flushes, and waits for its delivery report.
func (p *Publisher) Publish(ctx context.Context, n pipeline.Notification) error {
	if n.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	topic := n.Topic
	delivery := make(chan kafka.Event, 1)
	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(n.Key),
		Value:          []byte(n.Value),
	}, delivery)
	if err != nil {
		return fmt.Errorf("produce: %w", err)
	}

	if remaining := p.producer.Flush(int(p.flushTimeout.Milliseconds())); remaining > 0 {
		return fmt.Errorf("%w: %d message(s) outstanding", ErrFlushTimeout, remaining)
	}

	select {
	case ev := <-delivery:
		return deliveryError(ev)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func deliveryError(ev kafka.Event) error {
	switch e := ev.(type) {
	case *kafka.Message:
		if e.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", e.TopicPartition.Error)
		}
		return nil
	case kafka.Error:
		return fmt.Errorf("delivery failed: %w", e)
	default:
		return fmt.Errorf("unexpected delivery event %v", ev)
	}
}

// Close flushes outstanding messages and closes the producer.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if remaining := p.producer.Flush(int(p.flushTimeout.Milliseconds())); remaining > 0 {
			p.logger.Warn("kafka close with undelivered messages", zap.Int("remaining", remaining))
		}
		close(p.done)
		p.producer.Close()
	})
}
