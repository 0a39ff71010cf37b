package capacity

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/metrics"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

// PersonStore reads team members. GetByID returns a not found error for unknown ids.
type PersonStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	ListActive(ctx context.Context) ([]models.Person, error)
}

type AssignmentStore interface {
	ListActiveWithProject(ctx context.Context, personID uuid.UUID) ([]models.AssignmentWithProject, error)
}

// SnapshotStore writes snapshots keyed by team member and week start. Upsert fills in the
// stored ID and calculation time.
type SnapshotStore interface {
	Upsert(ctx context.Context, snapshot *models.CapacitySnapshot) error
}

type EventPublisher interface {
	SnapshotUpdated(ctx context.Context, snapshot models.CapacitySnapshot) error
	ConflictsDetected(ctx context.Context, weekStart time.Time, conflicts []models.CapacityConflict) error
}

// Locker serializes work across replicas.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type Stores struct {
	People      PersonStore
	Assignments AssignmentStore
	Snapshots   SnapshotStore
}

type Config struct {
	FleetWorkers       int
	ForecastMaxWeeks   int
	RecalculateLockTTL time.Duration
}

const (
	defaultFleetWorkers     = 8
	defaultForecastMaxWeeks = 12
	defaultLockTTL          = 5 * time.Minute
)

type Service struct {
	logger      ectologger.Logger
	people      PersonStore
	assignments AssignmentStore
	snapshots   SnapshotStore
	events      EventPublisher
	locker      Locker
	config      Config
	now         func() time.Time
}

// NewService builds the capacity service. events and locker may be nil: events are then not
// published and recalculation sweeps run unlocked.
func NewService(logger ectologger.Logger, stores Stores, events EventPublisher, locker Locker, config Config) *Service {
	if config.FleetWorkers <= 0 {
		config.FleetWorkers = defaultFleetWorkers
	}
	if config.ForecastMaxWeeks <= 0 {
		config.ForecastMaxWeeks = defaultForecastMaxWeeks
	}
	if config.RecalculateLockTTL <= 0 {
		config.RecalculateLockTTL = defaultLockTTL
	}

	return &Service{
		logger:      logger,
		people:      stores.People,
		assignments: stores.Assignments,
		snapshots:   stores.Snapshots,
		events:      events,
		locker:      locker,
		config:      config,
		now:         time.Now,
	}
}

// ComputeSnapshot recomputes and stores the snapshot of one team member for the week containing
// week, or the current week when week is nil.
func (s *Service) ComputeSnapshot(ctx context.Context, personID uuid.UUID, week *time.Time) (models.CapacitySnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "capacity.ComputeSnapshot")
	defer span.End()

	snapshot, err := s.computeSnapshot(ctx, personID, capacity.ResolveWeek(week, s.now()))
	metrics.RecordSnapshot(err)
	return snapshot, err
}

func (s *Service) computeSnapshot(ctx context.Context, personID uuid.UUID, weekStart time.Time) (models.CapacitySnapshot, error) {
	person, err := s.people.GetByID(ctx, personID)
	if err != nil {
		return models.CapacitySnapshot{}, err
	}

	assignments, err := s.assignments.ListActiveWithProject(ctx, personID)
	if err != nil {
		return models.CapacitySnapshot{}, err
	}

	snapshot := capacity.ComputeSnapshot(*person, flatten(assignments), weekStart, s.now())
	if err := s.snapshots.Upsert(ctx, &snapshot); err != nil {
		return models.CapacitySnapshot{}, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"team_member_id":  snapshot.TeamMemberID,
		"week_start_date": snapshot.WeekStartDate.Format(capacity.DateLayout),
		"allocated_hours": snapshot.AllocatedHours.String(),
		"utilization_pct": snapshot.UtilizationPct.StringFixed(1),
		"overallocated":   snapshot.Overallocated,
	}).Debug("Computed capacity snapshot")

	if s.events != nil {
		if err := s.events.SnapshotUpdated(ctx, snapshot); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish snapshot update")
		}
	}

	return snapshot, nil
}

func flatten(assignments []models.AssignmentWithProject) []models.Assignment {
	result := make([]models.Assignment, len(assignments))
	for i, a := range assignments {
		result[i] = a.Assignment
	}
	return result
}
