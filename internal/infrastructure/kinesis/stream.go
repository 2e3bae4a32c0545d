// Package kinesis turns DynamoDB change records delivered through Kinesis
// into stored events.
package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/pizza-shop/internal/infrastructure/store"
)

var ErrIncompleteImage = errors.New("stream image is missing required attributes")

// Decode reads one Kinesis record. Only INSERTs carry new events; other
// change types decode to nil.
func Decode(record events.KinesisEventRecord) (*store.Event, error) {
	var change events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return DecodeChange(change)
}

// DecodeChange reads a DynamoDB stream record.
func DecodeChange(change events.DynamoDBEventRecord) (*store.Event, error) {
	if change.EventName != "INSERT" {
		return nil, nil
	}
	return fromImage(change.Change.NewImage)
}

func fromImage(image map[string]events.DynamoDBAttributeValue) (*store.Event, error) {
	if image == nil {
		return nil, ErrIncompleteImage
	}

	str := func(name string) string {
		if v, ok := image[name]; ok && v.DataType() == events.DataTypeString {
			return v.String()
		}
		return ""
	}

	event := &store.Event{
		ID:            str("id"),
		AggregateID:   str("aggregate_id"),
		AggregateType: str("aggregate_type"),
		EventType:     str("event_type"),
		Data:          json.RawMessage(str("data")),
	}
	if event.ID == "" || event.AggregateID == "" || event.EventType == "" {
		return nil, fmt.Errorf("%w: id=%q aggregate_id=%q event_type=%q",
			ErrIncompleteImage, event.ID, event.AggregateID, event.EventType)
	}

	if raw := str("created_at"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		event.Timestamp = ts
	}
	if v, ok := image["version"]; ok {
		version, err := v.Integer()
		if err != nil {
			return nil, fmt.Errorf("failed to parse version: %w", err)
		}
		event.Version = int(version)
	}
	return event, nil
}

// Apply projects one event.
type Apply func(ctx context.Context, event store.Event) error

// Process applies the batch in order. Undecodable records are logged and
// skipped. When apply fails, processing stops and the failed record is
// reported so Lambda retries the batch from there.
func Process(ctx context.Context, batch events.KinesisEvent, apply Apply) events.KinesisEventResponse {
	var resp events.KinesisEventResponse
	for _, record := range batch.Records {
		event, err := Decode(record)
		if err != nil {
			log.Printf("[Kinesis] Skipping record %s: %v", record.EventID, err)
			continue
		}
		if event == nil {
			continue
		}
		if err := apply(ctx, *event); err != nil {
			log.Printf("[Kinesis] Failed to apply %s (%s): %v", event.EventType, event.ID, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			return resp
		}
	}
	return resp
}
