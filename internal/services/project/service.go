// Package project edits and removes projects and proposes who should staff them. Every write
// refreshes the current snapshot of the team members the project touches.
package project

import (
	"context"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

type ProjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AssignmentLister interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithProject, error)
}

type PersonLister interface {
	ListActive(ctx context.Context) ([]models.Person, error)
}

type CapacityCalculator interface {
	ComputeSnapshot(ctx context.Context, personID uuid.UUID, week *time.Time) (models.CapacitySnapshot, error)
}

type Recommender interface {
	Recommend(ctx context.Context, project models.Project, candidates []models.StaffingCandidate) (*models.StaffingRecommendation, error)
}

type Service struct {
	logger      ectologger.Logger
	projects    ProjectStore
	assignments AssignmentLister
	people      PersonLister
	capacity    CapacityCalculator
	recommender Recommender
}

func NewService(logger ectologger.Logger, projects ProjectStore, assignments AssignmentLister, people PersonLister, capacity CapacityCalculator, recommender Recommender) *Service {
	return &Service{
		logger:      logger,
		projects:    projects,
		assignments: assignments,
		people:      people,
		capacity:    capacity,
		recommender: recommender,
	}
}

// Update applies a partial update. Priority and deadline feed conflict detection, so every
// team member active on the project gets a fresh snapshot.
func (s *Service) Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Update")
	defer span.End()

	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	project, err := s.projects.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	members, err := s.activeMembers(ctx, id)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"project_id": id,
		}).Warn("Failed to list project members after update")
		return project, nil
	}
	s.recompute(ctx, members)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": id,
		"members":    len(members),
	}).Info("Updated project")
	return project, nil
}

func validateUpdate(update models.ProjectUpdate) error {
	if update.IsEmpty() {
		return apperrors.InvalidInput("no fields to update")
	}
	if update.Name != nil && *update.Name == "" {
		return apperrors.InvalidInput("name must not be empty")
	}
	if update.Status != nil && !update.Status.Valid() {
		return apperrors.InvalidInput("invalid status %q", *update.Status)
	}
	if update.Priority != nil && !update.Priority.Valid() {
		return apperrors.InvalidInput("invalid priority %q", *update.Priority)
	}
	if update.EstimatedTotalHours != nil && update.EstimatedTotalHours.IsNegative() {
		return apperrors.InvalidInput("estimated_total_hours must not be negative")
	}
	return nil
}

// Delete removes the project with its assignments, then recomputes the snapshots of the
// members who were on it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "project.Delete")
	defer span.End()

	members, err := s.activeMembers(ctx, id)
	if err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": id,
		"members":    len(members),
	}).Info("Deleted project")

	s.recompute(ctx, members)
	return nil
}

// Recommend lists the active team members not yet on the project with this week's headroom and
// asks the recommender to pick from them. No candidates means no model call.
func (s *Service) Recommend(ctx context.Context, id uuid.UUID) (*models.StaffingRecommendation, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Recommend")
	defer span.End()

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &models.StaffingRecommendation{
			Recommendations:      []models.Recommendation{},
			TeamCompositionNotes: models.AllAssignedNote,
			Warnings:             []string{},
		}, nil
	}

	return s.recommender.Recommend(ctx, *project, candidates)
}

func (s *Service) candidates(ctx context.Context, projectID uuid.UUID) ([]models.StaffingCandidate, error) {
	people, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.assignments.List(ctx, models.AssignmentFilter{Status: models.AssignmentStatusActive})
	if err != nil {
		return nil, err
	}

	allocated := map[uuid.UUID]decimal.Decimal{}
	projectCount := map[uuid.UUID]int{}
	onProject := map[uuid.UUID]bool{}
	for _, a := range active {
		allocated[a.TeamMemberID] = allocated[a.TeamMemberID].Add(a.HoursThisWeek)
		projectCount[a.TeamMemberID]++
		if a.ProjectID == projectID {
			onProject[a.TeamMemberID] = true
		}
	}

	free := ectolinq.Filter(people, func(p models.Person) bool {
		return !onProject[p.ID]
	})
	return ectolinq.Map(free, func(p models.Person) models.StaffingCandidate {
		capacity := p.Capacity()
		return models.StaffingCandidate{
			ID:             p.ID,
			FullName:       p.FullName,
			Role:           p.Role,
			Capacity:       capacity,
			AllocatedHours: allocated[p.ID],
			AvailableHours: capacity.Sub(allocated[p.ID]),
			ProjectCount:   projectCount[p.ID],
		}
	}), nil
}

// activeMembers returns each team member with an active assignment on the project once.
func (s *Service) activeMembers(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	assignments, err := s.assignments.List(ctx, models.AssignmentFilter{
		ProjectID: &projectID,
		Status:    models.AssignmentStatusActive,
	})
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	members := []uuid.UUID{}
	for _, a := range assignments {
		if !seen[a.TeamMemberID] {
			seen[a.TeamMemberID] = true
			members = append(members, a.TeamMemberID)
		}
	}
	return members, nil
}

// recompute refreshes snapshots after a write that already succeeded, so failures are only logged.
func (s *Service) recompute(ctx context.Context, members []uuid.UUID) {
	for _, personID := range members {
		if _, err := s.capacity.ComputeSnapshot(ctx, personID, nil); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"team_member_id": personID,
			}).Warn("Failed to recompute capacity snapshot")
		}
	}
}
