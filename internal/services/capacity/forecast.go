package capacity

import (
	"context"
	"time"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

const DefaultForecastWeeks = 4

type ForecastWeek struct {
	WeekStart  time.Time
	WeekNumber int
	Members    []models.CapacitySnapshot
}

// Forecast projects the current allocations of every active team member over the next weeks,
// starting with the current one. Nothing is stored.
func (s *Service) Forecast(ctx context.Context, weeks int) ([]ForecastWeek, error) {
	ctx, span := tracing.StartSpan(ctx, "capacity.Forecast")
	defer span.End()

	if weeks < 1 || weeks > s.config.ForecastMaxWeeks {
		return nil, apperrors.InvalidInput("weeks must be between 1 and %d", s.config.ForecastMaxWeeks)
	}

	people, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	allocations := make([][]models.Assignment, len(people))
	loaded := make([]bool, len(people))
	s.forEachPerson(ctx, people, func(ctx context.Context, i int, person models.Person) {
		assignments, err := s.assignments.ListActiveWithProject(ctx, person.ID)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"team_member_id": person.ID,
				"full_name":      person.FullName,
			}).Error("Failed to load assignments for forecast")
			return
		}
		allocations[i] = flatten(assignments)
		loaded[i] = true
	})

	now := s.now()
	current := capacity.WeekStart(now)
	forecast := make([]ForecastWeek, 0, weeks)
	for offset := range weeks {
		weekStart := current.AddDate(0, 0, 7*offset)
		members := make([]models.CapacitySnapshot, 0, len(people))
		for i, person := range people {
			if !loaded[i] {
				continue
			}
			members = append(members, capacity.ComputeSnapshot(person, allocations[i], weekStart, now))
		}
		capacity.SortByUtilization(members)

		forecast = append(forecast, ForecastWeek{
			WeekStart:  weekStart,
			WeekNumber: capacity.ISOWeekNumber(weekStart),
			Members:    members,
		})
	}

	return forecast, nil
}
