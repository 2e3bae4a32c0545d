package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/pizza-shop/internal/infrastructure/store"
)

// Aggregate is an event-sourced entity rebuilt by replaying its events.
type Aggregate interface {
	GetID() string
	GetVersion() int
	ApplyEvent(store.Event) error
}

// LoadAggregate restores the latest snapshot, if any, and replays the events
// recorded after it. The bool is false when the aggregate has no history.
func LoadAggregate[T Aggregate](
	ctx context.Context,
	eventStore store.EventStoreInterface,
	id string,
	newAggregate func() T,
) (T, bool, error) {
	agg := newAggregate()
	var zero T

	snapshot, err := eventStore.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var events []store.Event
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		events = eventStore.GetEventsFromVersion(ctx, id, snapshot.Version)
	} else {
		events = eventStore.GetEvents(ctx, id)
	}

	for _, event := range events {
		if err := agg.ApplyEvent(event); err != nil {
			return zero, false, fmt.Errorf("failed to apply %s v%d: %w", event.EventType, event.Version, err)
		}
	}

	return agg, snapshot != nil || len(events) > 0, nil
}

// Record appends the event at the version agg was loaded with, applies the
// stored copy and snapshots when the new version hits the threshold.
// store.ErrVersionConflict means agg is stale. Snapshot failures are logged
// only.
func Record(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType, eventType string,
	data any,
) error {
	stored, err := eventStore.Append(ctx, agg.GetID(), aggregateType, eventType, agg.GetVersion(), data)
	if err != nil {
		return err
	}
	if err := agg.ApplyEvent(*stored); err != nil {
		return fmt.Errorf("failed to apply %s: %w", eventType, err)
	}
	if err := MaybeCreateSnapshot(ctx, eventStore, agg, aggregateType); err != nil {
		log.Printf("[%s] Failed to create snapshot for %s: %v", aggregateType, agg.GetID(), err)
	}
	return nil
}

// MaybeCreateSnapshot saves the aggregate state every SnapshotThreshold
// versions.
func MaybeCreateSnapshot(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType string,
) error {
	version := agg.GetVersion()
	if version == 0 || version%store.SnapshotThreshold != 0 {
		return nil
	}

	state, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}

	snapshot := &store.Snapshot{
		AggregateID:   agg.GetID(),
		AggregateType: aggregateType,
		Version:       version,
		State:         state,
		CreatedAt:     time.Now(),
	}
	if err := eventStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
