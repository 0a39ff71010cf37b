package capacity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/metrics"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/redis"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

const recalculateLockKey = "capacity:recalculate"

type RecalculatedMember struct {
	TeamMemberID   uuid.UUID       `json:"team_member_id"`
	FullName       string          `json:"full_name"`
	AllocatedHours decimal.Decimal `json:"allocated_hours"`
	UtilizationPct decimal.Decimal `json:"utilization_pct"`
}

type RecalculationError struct {
	TeamMemberID uuid.UUID `json:"team_member_id"`
	FullName     string    `json:"full_name"`
	Error        string    `json:"error"`
}

// RecalculationResult lists the members whose snapshot was rebuilt and the ones that failed.
// Total counts the successes.
type RecalculationResult struct {
	Recalculated []RecalculatedMember `json:"recalculated"`
	Errors       []RecalculationError `json:"errors"`
	Total        int                  `json:"total"`
}

// Recalculate rebuilds the current week snapshot of every active team member. Only one sweep
// runs at a time when a locker is configured; a concurrent call fails with a conflict error.
func (s *Service) Recalculate(ctx context.Context) (RecalculationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "capacity.Recalculate")
	defer span.End()

	if s.locker == nil {
		return s.recalculate(ctx)
	}

	var result RecalculationResult
	err := s.locker.WithLock(ctx, recalculateLockKey, s.config.RecalculateLockTTL, func(ctx context.Context) error {
		var err error
		result, err = s.recalculate(ctx)
		return err
	})
	if errors.Is(err, redis.ErrLockNotAcquired) {
		return RecalculationResult{}, apperrors.Conflict("a capacity recalculation is already running")
	}
	return result, err
}

func (s *Service) recalculate(ctx context.Context) (RecalculationResult, error) {
	people, err := s.people.ListActive(ctx)
	if err != nil {
		return RecalculationResult{}, err
	}

	weekStart := capacity.WeekStart(s.now())
	snapshots := make([]*models.CapacitySnapshot, len(people))
	failures := make([]error, len(people))
	s.forEachPerson(ctx, people, func(ctx context.Context, i int, person models.Person) {
		snapshot, err := s.computeSnapshot(ctx, person.ID, weekStart)
		metrics.RecordSnapshot(err)
		if err != nil {
			failures[i] = err
			return
		}
		snapshots[i] = &snapshot
	})

	result := RecalculationResult{
		Recalculated: []RecalculatedMember{},
		Errors:       []RecalculationError{},
	}
	for i, person := range people {
		if failures[i] != nil {
			s.logger.WithContext(ctx).WithError(failures[i]).WithFields(map[string]any{
				"team_member_id": person.ID,
				"full_name":      person.FullName,
			}).Warn("Failed to recalculate capacity snapshot")
			result.Errors = append(result.Errors, RecalculationError{
				TeamMemberID: person.ID,
				FullName:     person.FullName,
				Error:        failures[i].Error(),
			})
			continue
		}
		result.Recalculated = append(result.Recalculated, RecalculatedMember{
			TeamMemberID:   person.ID,
			FullName:       person.FullName,
			AllocatedHours: snapshots[i].AllocatedHours,
			UtilizationPct: snapshots[i].UtilizationPct,
		})
	}
	result.Total = len(result.Recalculated)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"recalculated": result.Total,
		"errors":       len(result.Errors),
	}).Info("Recalculated capacity snapshots")

	return result, nil
}
