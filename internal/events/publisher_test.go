package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Wraps payload in envelope", func(t *testing.T) {
		w := &fakeWriter{}
		p := &KafkaPublisher{w: w, now: func() time.Time { return now }}

		err := p.Publish(context.Background(), "order.paid", "order-1", map[string]any{"orderNumber": "ABC"})

		require.NoError(t, err)
		require.Len(t, w.msgs, 1)
		msg := w.msgs[0]
		assert.Equal(t, []byte("order-1"), msg.Key)
		assert.Equal(t, "event-type", msg.Headers[0].Key)
		assert.Equal(t, []byte("order.paid"), msg.Headers[0].Value)

		var env Envelope
		require.NoError(t, json.Unmarshal(msg.Value, &env))
		assert.Equal(t, "order.paid", env.Type)
		assert.Equal(t, "order-1", env.Key)
		assert.True(t, now.Equal(env.OccurredAt))
		assert.NotEqual(t, uuid.Nil, env.ID)
		assert.JSONEq(t, `{"orderNumber":"ABC"}`, string(env.Payload))
	})

	t.Run("Writer error", func(t *testing.T) {
		p := &KafkaPublisher{w: &fakeWriter{err: errors.New("leader not available")}, now: time.Now}

		err := p.Publish(context.Background(), "order.updated", "order-1", struct{}{})

		assert.EqualError(t, err, "publish order.updated: leader not available")
	})

	t.Run("Unencodable payload", func(t *testing.T) {
		w := &fakeWriter{}
		p := &KafkaPublisher{w: w, now: time.Now}

		err := p.Publish(context.Background(), "order.paid", "k", make(chan int))

		assert.ErrorContains(t, err, "encode order.paid payload")
		assert.Empty(t, w.msgs)
	})

	t.Run("Close", func(t *testing.T) {
		w := &fakeWriter{}
		p := &KafkaPublisher{w: w, now: time.Now}

		require.NoError(t, p.Close())
		assert.True(t, w.closed)
	})
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), "order.paid", "k", nil))
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "storefront.orders")

	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "storefront.orders", w.Topic)
	assert.True(t, w.Async)
}
