package capacity

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/metrics"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

// ReportCurrentWeek computes the snapshot of every active team member for the current week.
func (s *Service) ReportCurrentWeek(ctx context.Context) ([]models.CapacitySnapshot, error) {
	return s.ReportWeek(ctx, capacity.WeekStart(s.now()))
}

// ReportWeek computes and stores the snapshot of every active team member for the week
// containing week, ordered by utilization, highest first. Members whose snapshot cannot be
// computed are logged and left out.
func (s *Service) ReportWeek(ctx context.Context, week time.Time) ([]models.CapacitySnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "capacity.ReportWeek")
	defer span.End()

	started := time.Now()
	defer func() { metrics.FleetReportDuration.Observe(time.Since(started).Seconds()) }()

	people, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	weekStart := capacity.WeekStart(week)
	results := make([]*models.CapacitySnapshot, len(people))
	s.forEachPerson(ctx, people, func(ctx context.Context, i int, person models.Person) {
		snapshot, err := s.computeSnapshot(ctx, person.ID, weekStart)
		metrics.RecordSnapshot(err)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"team_member_id": person.ID,
				"full_name":      person.FullName,
			}).Error("Failed to compute capacity snapshot")
			return
		}
		results[i] = &snapshot
	})

	snapshots := make([]models.CapacitySnapshot, 0, len(people))
	overallocated := 0
	for _, snapshot := range results {
		if snapshot == nil {
			continue
		}
		if snapshot.Overallocated {
			overallocated++
		}
		snapshots = append(snapshots, *snapshot)
	}
	metrics.OverallocatedMembers.Set(float64(overallocated))

	capacity.SortByUtilization(snapshots)
	return snapshots, nil
}

// forEachPerson runs fn for every person on at most FleetWorkers goroutines. fn handles its
// own failures; i is the person's index in people.
func (s *Service) forEachPerson(ctx context.Context, people []models.Person, fn func(ctx context.Context, i int, person models.Person)) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FleetWorkers)

	for i, person := range people {
		g.Go(func() error {
			fn(ctx, i, person)
			return nil
		})
	}

	_ = g.Wait()
}
