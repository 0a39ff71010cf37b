package capacity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

type Summary struct {
	TotalTeamMembers    int
	TotalCapacityHours  decimal.Decimal
	TotalAllocatedHours decimal.Decimal
	TotalAvailableHours decimal.Decimal
	// AverageUtilization is total allocated over total capacity, not a mean of the members.
	AverageUtilization decimal.Decimal
	OverallocatedCount int
	ConflictCount      int
	WeekStart          time.Time
}

// Summary aggregates the current week fleet report and its conflicts.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "capacity.Summary")
	defer span.End()

	weekStart := capacity.WeekStart(s.now())
	snapshots, err := s.ReportWeek(ctx, weekStart)
	if err != nil {
		return Summary{}, err
	}

	conflicts, err := s.conflictsFor(ctx, weekStart, snapshots)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		TotalTeamMembers:    len(snapshots),
		TotalCapacityHours:  decimal.Zero,
		TotalAllocatedHours: decimal.Zero,
		ConflictCount:       len(conflicts),
		WeekStart:           weekStart,
	}
	for _, snapshot := range snapshots {
		summary.TotalCapacityHours = summary.TotalCapacityHours.Add(snapshot.TotalCapacityHours)
		summary.TotalAllocatedHours = summary.TotalAllocatedHours.Add(snapshot.AllocatedHours)
		if snapshot.Overallocated {
			summary.OverallocatedCount++
		}
	}
	summary.TotalAvailableHours = summary.TotalCapacityHours.Sub(summary.TotalAllocatedHours)
	summary.AverageUtilization = capacity.Utilization(summary.TotalAllocatedHours, summary.TotalCapacityHours)

	return summary, nil
}
