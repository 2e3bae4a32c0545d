package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// In-Memory Event Store Tests
// ============================================

func TestEventStore_AppendAssignsVersions(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	e1, err := es.Append(ctx, "cart-1", "Cart", "CartCleared", 0, map[string]string{"cart_id": "cart-1"})
	require.NoError(t, err)
	e2, err := es.Append(ctx, "cart-1", "Cart", "CartCleared", 1, map[string]string{"cart_id": "cart-1"})
	require.NoError(t, err)
	other, err := es.Append(ctx, "order-1", "Order", "OrderCancelled", 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, e1.Version)
	assert.Equal(t, 2, e2.Version)
	assert.Equal(t, 1, other.Version)
	assert.NotEqual(t, e1.ID, e2.ID)
	assert.JSONEq(t, `{"cart_id":"cart-1"}`, string(e1.Data))
}

func TestEventStore_AppendRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	var published int
	es := NewEventStore(PublisherFunc(func(ctx context.Context, key string, e Event) error {
		published++
		return nil
	}))

	_, err := es.Append(ctx, "cart-1", "Cart", "ItemAddedToCart", 0, nil)
	require.NoError(t, err)
	_, err = es.Append(ctx, "cart-1", "Cart", "CartItemQuantityUpdated", 1, nil)
	require.NoError(t, err)

	_, err = es.Append(ctx, "cart-1", "Cart", "CartItemQuantityUpdated", 1, nil)
	assert.ErrorIs(t, err, ErrVersionConflict)
	_, err = es.Append(ctx, "cart-1", "Cart", "CartItemQuantityUpdated", 5, nil)
	assert.ErrorIs(t, err, ErrVersionConflict)

	assert.Len(t, es.GetEvents(ctx, "cart-1"), 2)
	assert.Len(t, es.GetAllEvents(ctx), 2)
	assert.Equal(t, 2, published)
}

func TestEventStore_GetAllEventsInAppendOrder(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	versions := map[string]int{}
	for _, id := range []string{"a", "b", "a", "c"} {
		_, err := es.Append(ctx, id, "Cart", "CartCleared", versions[id], nil)
		require.NoError(t, err)
		versions[id]++
	}

	all := es.GetAllEvents(ctx)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].AggregateID)
	assert.Equal(t, "b", all[1].AggregateID)
	assert.Equal(t, "a", all[2].AggregateID)
	assert.Equal(t, 2, all[2].Version)
	assert.Equal(t, "c", all[3].AggregateID)
}

func TestEventStore_GetEventsFromVersion(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)
	for i := 0; i < 5; i++ {
		_, err := es.Append(ctx, "cart-1", "Cart", "CartCleared", i, nil)
		require.NoError(t, err)
	}

	events := es.GetEventsFromVersion(ctx, "cart-1", 3)

	require.Len(t, events, 2)
	assert.Equal(t, 4, events[0].Version)
	assert.Equal(t, 5, events[1].Version)
	assert.Empty(t, es.GetEvents(ctx, "unknown"))
}

func TestEventStore_PublishesAfterAppend(t *testing.T) {
	ctx := context.Background()
	var published []Event
	es := NewEventStore(PublisherFunc(func(ctx context.Context, key string, e Event) error {
		assert.Equal(t, e.AggregateID, key)
		published = append(published, e)
		return nil
	}))

	_, err := es.Append(ctx, "order-1", "Order", "OrderPlaced", 0, nil)

	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "OrderPlaced", published[0].EventType)
}

func TestEventStore_PublishErrorReturned(t *testing.T) {
	boom := errors.New("broker down")
	es := NewEventStore(PublisherFunc(func(ctx context.Context, key string, e Event) error {
		return boom
	}))

	_, err := es.Append(context.Background(), "order-1", "Order", "OrderPlaced", 0, nil)

	assert.ErrorIs(t, err, boom)
}

// ============================================
// Snapshot Tests
// ============================================

func TestSnapshotThreshold(t *testing.T) {
	assert.Equal(t, 10, SnapshotThreshold)
}

func TestEventStore_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	missing, err := es.GetSnapshot(ctx, "cart-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	state, err := json.Marshal(map[string]any{"id": "cart-1", "items": []string{}})
	require.NoError(t, err)
	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{
		AggregateID:   "cart-1",
		AggregateType: "Cart",
		Version:       10,
		State:         state,
		CreatedAt:     time.Now(),
	}))

	got, err := es.GetSnapshot(ctx, "cart-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Version)
	assert.JSONEq(t, string(state), string(got.State))
}
