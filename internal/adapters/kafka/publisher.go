package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lakiremit/checkout-service/pkg/resilience"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher emits terminal checkout events to Kafka. Publishing is
// best-effort from the caller's perspective; failed publishes are retried
// with backoff and then logged and dropped.
type Publisher struct {
	writer  *kafka.Writer
	backoff resilience.BackoffStrategy
	retries int
	logger  *zap.Logger
}

// NewPublisher creates a Kafka publisher for the given brokers
func NewPublisher(brokers []string, logger *zap.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Publisher{
		writer:  writer,
		backoff: resilience.PublisherBackoff(),
		retries: 3,
		logger:  logger,
	}
}

// Publish writes one event to the topic, keyed by a fresh event id
func (p *Publisher) Publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(uuid.New().String()),
		Value: payload,
		Time:  time.Now(),
	}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff.NextDelay(attempt - 1)):
			}
		}

		if lastErr = p.writer.WriteMessages(ctx, message); lastErr == nil {
			p.logger.Debug("event published",
				zap.String("topic", topic),
				zap.Int("attempt", attempt+1))
			return nil
		}

		p.logger.Warn("event publish attempt failed",
			zap.String("topic", topic),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	return fmt.Errorf("publishing to %s after %d attempts: %w", topic, p.retries+1, lastErr)
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
