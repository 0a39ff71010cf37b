package assignment

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

type AssignmentStore interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AssignmentWithProject, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithProject, error)
	Update(ctx context.Context, id uuid.UUID, update models.AssignmentUpdate) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PersonReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
}

type ProjectReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// CapacityCalculator keeps snapshots in step with assignment changes.
type CapacityCalculator interface {
	ComputeSnapshot(ctx context.Context, personID uuid.UUID, week *time.Time) (models.CapacitySnapshot, error)
	DetectConflicts(ctx context.Context, week *time.Time) ([]models.CapacityConflict, error)
}

// NewAssignment is a request to put a team member on a project.
type NewAssignment struct {
	ProjectID       uuid.UUID
	TeamMemberID    uuid.UUID
	RoleOnProject   string
	EstimatedHours  decimal.Decimal
	HoursThisWeek   decimal.Decimal
	ConfidenceScore *float64
	Notes           *string
}

type BulkResult struct {
	Created   []models.AssignmentWithProject
	Conflicts []models.CapacityConflict
}

type Service struct {
	logger      ectologger.Logger
	assignments AssignmentStore
	people      PersonReader
	projects    ProjectReader
	capacity    CapacityCalculator
}

func NewService(logger ectologger.Logger, assignments AssignmentStore, people PersonReader, projects ProjectReader, capacity CapacityCalculator) *Service {
	return &Service{
		logger:      logger,
		assignments: assignments,
		people:      people,
		projects:    projects,
		capacity:    capacity,
	}
}

// Create stores a manual assignment and recomputes the team member's current snapshot.
func (s *Service) Create(ctx context.Context, req NewAssignment) (*models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Create")
	defer span.End()

	created, err := s.create(ctx, req, models.AssignmentSourceManual)
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, req.TeamMemberID)
	return created, nil
}

// AddToProject puts a team member on a project they are not already actively assigned to.
// A second active assignment for the same pair is a Conflict.
func (s *Service) AddToProject(ctx context.Context, req NewAssignment) (*models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.AddToProject")
	defer span.End()

	if err := validateNew(req); err != nil {
		return nil, err
	}

	existing, err := s.assignments.List(ctx, models.AssignmentFilter{
		ProjectID:    &req.ProjectID,
		TeamMemberID: &req.TeamMemberID,
		Status:       models.AssignmentStatusActive,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperrors.Conflict("team member %s is already assigned to project %s", req.TeamMemberID, req.ProjectID)
	}

	created, err := s.create(ctx, req, models.AssignmentSourceManual)
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, req.TeamMemberID)
	return created, nil
}

// CreateBulk stores assignments proposed from a transcript. Items that fail are logged and
// skipped. The result carries a fresh conflict pass over the whole team.
func (s *Service) CreateBulk(ctx context.Context, reqs []NewAssignment) (BulkResult, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.CreateBulk")
	defer span.End()

	result := BulkResult{Created: []models.AssignmentWithProject{}}
	for i, req := range reqs {
		created, err := s.create(ctx, req, models.AssignmentSourceAI)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"index":          i,
				"project_id":     req.ProjectID,
				"team_member_id": req.TeamMemberID,
			}).Warn("Skipping assignment in bulk create")
			continue
		}
		result.Created = append(result.Created, *created)
	}

	conflicts, err := s.capacity.DetectConflicts(ctx, nil)
	if err != nil {
		return BulkResult{}, err
	}
	result.Conflicts = conflicts

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"requested": len(reqs),
		"created":   len(result.Created),
		"conflicts": len(conflicts),
	}).Info("Bulk created assignments")
	return result, nil
}

func (s *Service) create(ctx context.Context, req NewAssignment, source models.AssignmentSource) (*models.AssignmentWithProject, error) {
	if err := validateNew(req); err != nil {
		return nil, err
	}

	if _, err := s.projects.GetByID(ctx, req.ProjectID); err != nil {
		return nil, err
	}
	if _, err := s.people.GetByID(ctx, req.TeamMemberID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		ID:              uuid.New(),
		ProjectID:       req.ProjectID,
		TeamMemberID:    req.TeamMemberID,
		RoleOnProject:   req.RoleOnProject,
		EstimatedHours:  req.EstimatedHours,
		HoursThisWeek:   req.HoursThisWeek,
		HoursConsumed:   decimal.Zero,
		Status:          models.AssignmentStatusActive,
		ConfidenceScore: req.ConfidenceScore,
		Notes:           req.Notes,
		AssignedBy:      source,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"assignment_id":   assignment.ID,
		"project_id":      assignment.ProjectID,
		"team_member_id":  assignment.TeamMemberID,
		"hours_this_week": assignment.HoursThisWeek.String(),
		"assigned_by":     source,
	}).Info("Created assignment")

	return s.assignments.GetByID(ctx, assignment.ID)
}

func validateNew(req NewAssignment) error {
	if req.ProjectID == uuid.Nil {
		return apperrors.InvalidInput("project_id is required")
	}
	if req.TeamMemberID == uuid.Nil {
		return apperrors.InvalidInput("team_member_id is required")
	}
	if req.EstimatedHours.IsNegative() {
		return apperrors.InvalidInput("estimated_hours must not be negative")
	}
	if req.HoursThisWeek.IsNegative() {
		return apperrors.InvalidInput("hours_this_week must not be negative")
	}
	if req.ConfidenceScore != nil && (*req.ConfidenceScore < 0 || *req.ConfidenceScore > 1) {
		return apperrors.InvalidInput("confidence_score must be between 0 and 1")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Get")
	defer span.End()

	return s.assignments.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.List")
	defer span.End()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidInput("invalid status %q", filter.Status)
	}
	return s.assignments.List(ctx, filter)
}

// Update applies a partial update and recomputes the owner's current snapshot.
func (s *Service) Update(ctx context.Context, id uuid.UUID, update models.AssignmentUpdate) (*models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "assignment.Update")
	defer span.End()

	if update.IsEmpty() {
		return nil, apperrors.InvalidInput("no fields to update")
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, apperrors.InvalidInput("invalid status %q", *update.Status)
	}
	if update.HoursThisWeek != nil && update.HoursThisWeek.IsNegative() {
		return nil, apperrors.InvalidInput("hours_this_week must not be negative")
	}
	if update.EstimatedHours != nil && update.EstimatedHours.IsNegative() {
		return nil, apperrors.InvalidInput("estimated_hours must not be negative")
	}

	personID, err := s.assignments.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, personID)
	return s.assignments.GetByID(ctx, id)
}

// Delete removes the assignment and recomputes the owner's current snapshot. The snapshot row is
// kept even when no allocation remains.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "assignment.Delete")
	defer span.End()

	existing, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"assignment_id":  id,
		"team_member_id": existing.TeamMemberID,
	}).Info("Deleted assignment")

	s.recompute(ctx, existing.TeamMemberID)
	return nil
}

// recompute refreshes a snapshot after a write that already succeeded, so failures are only logged.
func (s *Service) recompute(ctx context.Context, personID uuid.UUID) {
	if _, err := s.capacity.ComputeSnapshot(ctx, personID, nil); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"team_member_id": personID,
		}).Warn("Failed to recompute capacity snapshot")
	}
}
