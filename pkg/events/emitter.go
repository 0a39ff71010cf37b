// Package events publishes capacity changes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/kafka"
	"github.com/tom2tomtomtom/traffic-manager/pkg/metrics"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

// Publisher is the transport the emitter writes to.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, headers map[string]string, value []byte) error
}

// Emitter turns capacity results into events. A nil publisher makes every emit a no-op.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

type SnapshotUpdated struct {
	TeamMemberID       uuid.UUID `json:"team_member_id"`
	WeekStartDate      string    `json:"week_start_date"`
	TotalCapacityHours string    `json:"total_capacity_hours"`
	AllocatedHours     string    `json:"allocated_hours"`
	AvailableHours     string    `json:"available_hours"`
	UtilizationPct     string    `json:"utilization_pct"`
	Overallocated      bool      `json:"overallocated"`
	CalculatedAt       time.Time `json:"calculated_at"`
}

type ConflictsDetected struct {
	WeekStartDate string                    `json:"week_start_date"`
	Conflicts     []models.CapacityConflict `json:"conflicts"`
}

func (e *Emitter) SnapshotUpdated(ctx context.Context, snapshot models.CapacitySnapshot) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.SnapshotUpdated")
	defer span.End()

	data := SnapshotUpdated{
		TeamMemberID:       snapshot.TeamMemberID,
		WeekStartDate:      snapshot.WeekStartDate.Format(capacity.DateLayout),
		TotalCapacityHours: snapshot.TotalCapacityHours.String(),
		AllocatedHours:     snapshot.AllocatedHours.String(),
		AvailableHours:     snapshot.AvailableHours.String(),
		UtilizationPct:     snapshot.UtilizationPct.String(),
		Overallocated:      snapshot.Overallocated,
		CalculatedAt:       snapshot.CalculatedAt,
	}
	return emit(ctx, e, kafka.TopicSnapshotUpdated, snapshot.TeamMemberID.String(), data)
}

// ConflictsDetected publishes one event per detection pass that found anything.
func (e *Emitter) ConflictsDetected(ctx context.Context, weekStart time.Time, conflicts []models.CapacityConflict) error {
	if len(conflicts) == 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ConflictsDetected")
	defer span.End()

	week := weekStart.Format(capacity.DateLayout)
	return emit(ctx, e, kafka.TopicConflictsDetected, week, ConflictsDetected{WeekStartDate: week, Conflicts: conflicts})
}

func emit[T any](ctx context.Context, e *Emitter, topic, key string, data T) error {
	if e == nil || e.publisher == nil {
		return nil
	}

	value, err := json.Marshal(kafka.NewEnvelope(topic, data))
	if err != nil {
		return err
	}

	headers := map[string]string{"traceparent": tracing.GetTraceParent(ctx)}
	err = e.publisher.Publish(ctx, topic, key, headers, value)
	metrics.RecordEvent(topic, err)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", topic)
		return err
	}
	return nil
}
