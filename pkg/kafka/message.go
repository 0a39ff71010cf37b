package kafka

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event envelope version
const SchemaVersion = "1.0"

const (
	TopicSnapshotUpdated   = "capacity.snapshot.updated"
	TopicConflictsDetected = "capacity.conflicts.detected"
)

// Envelope wraps every published event.
type Envelope[T any] struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	OccurredAt    time.Time `json:"occurred_at"`
	Data          T         `json:"data"`
}

func NewEnvelope[T any](eventType string, data T) Envelope[T] {
	return Envelope[T]{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Data:          data,
	}
}
