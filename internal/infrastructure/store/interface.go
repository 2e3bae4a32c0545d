package store

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by Append when the aggregate moved past
// the expected version.
var ErrVersionConflict = errors.New("event version conflict")

// EventStoreInterface is the write side shared by the Postgres, DynamoDB
// and in-memory stores.
//
// Append writes the event at expectedVersion+1, where expectedVersion is
// the version the caller loaded. It fails with ErrVersionConflict when
// another event already holds that slot.
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error)
	GetEvents(ctx context.Context, aggregateID string) []Event
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) []Event
	GetAllEvents(ctx context.Context) []Event
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
}

// Publisher pushes stored events to the projection side.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, key string, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, key string, event Event) error {
	return f(ctx, key, event)
}
