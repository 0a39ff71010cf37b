package capacity

import (
	"context"
	"time"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/metrics"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

// DetectConflicts reports the conflicts of every overallocated team member for the week
// containing week, or the current week when week is nil.
func (s *Service) DetectConflicts(ctx context.Context, week *time.Time) ([]models.CapacityConflict, error) {
	ctx, span := tracing.StartSpan(ctx, "capacity.DetectConflicts")
	defer span.End()

	weekStart := capacity.ResolveWeek(week, s.now())
	snapshots, err := s.ReportWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	return s.conflictsFor(ctx, weekStart, snapshots)
}

func (s *Service) conflictsFor(ctx context.Context, weekStart time.Time, snapshots []models.CapacitySnapshot) ([]models.CapacityConflict, error) {
	conflicts := []models.CapacityConflict{}
	for _, snapshot := range snapshots {
		if !snapshot.Overallocated {
			continue
		}

		assignments, err := s.assignments.ListActiveWithProject(ctx, snapshot.TeamMemberID)
		if err != nil {
			return nil, err
		}

		for _, conflict := range capacity.DetectPersonConflicts(snapshot, assignments) {
			metrics.ConflictsDetectedTotal.WithLabelValues(string(conflict.Type), string(conflict.Severity)).Inc()
			conflicts = append(conflicts, conflict)
		}
	}

	if len(conflicts) > 0 {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"week_start_date": weekStart.Format(capacity.DateLayout),
			"conflicts":       len(conflicts),
		}).Info("Detected capacity conflicts")
	}

	if s.events != nil {
		if err := s.events.ConflictsDetected(ctx, weekStart, conflicts); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish detected conflicts")
		}
	}

	return conflicts, nil
}
