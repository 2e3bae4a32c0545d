package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages, then cancels the consumer.
type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestProducer_PublishesEventWithHeader(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}
	event := store.Event{
		ID:            "evt-1",
		AggregateID:   "cart-u1",
		AggregateType: "Cart",
		EventType:     "ItemAddedToCart",
		Data:          json.RawMessage(`{"quantity":1}`),
		Timestamp:     time.Now(),
		Version:       3,
	}

	require.NoError(t, p.Publish(context.Background(), event.AggregateID, event))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "cart-u1", string(msg.Key))
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, "ItemAddedToCart", string(msg.Headers[0].Value))

	var decoded store.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 3, decoded.Version)
	assert.JSONEq(t, `{"quantity":1}`, string(decoded.Data))
}

func TestConsumer_CommitsAfterHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		queue:  []kafka.Message{{Offset: 1, Value: []byte("a")}, {Offset: 2, Value: []byte("b")}},
		cancel: cancel,
	}
	c := &Consumer{reader: r, maxRetries: 3}

	var seen []string
	err := c.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		seen = append(seen, string(value))
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int64{1, 2}, r.committed)
}

func TestConsumer_RetriesThenSkips(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		queue:  []kafka.Message{{Offset: 7, Value: []byte("poison")}},
		cancel: cancel,
	}
	c := &Consumer{reader: r, maxRetries: 3, backoff: time.Millisecond}

	attempts := 0
	_ = c.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		attempts++
		return errors.New("projection failed")
	})

	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int64{7}, r.committed)
}
