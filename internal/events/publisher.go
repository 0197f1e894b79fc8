package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/order"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	_ order.Publisher = (*KafkaPublisher)(nil)
	_ order.Publisher = Noop{}
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w   messageWriter
	now func() time.Time
}

// NewKafkaPublisher writes asynchronously; delivery failures are logged by the writer.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.L().Error("order events not delivered",
					zap.String("layer", "events"),
					zap.Int("messages", len(msgs)),
					zap.Error(err),
				)
			}
		},
	}
	return &KafkaPublisher{w: w, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	env, err := json.Marshal(Envelope{
		ID:         uuid.New(),
		Type:       eventType,
		Key:        key,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", eventType, err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: env,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	logger.FromCtx(ctx).Debug("order event published",
		zap.String("layer", "events"),
		zap.String("event_type", eventType),
		zap.String("key", key),
	)
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Noop is used when KAFKA_BROKERS is unset.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
