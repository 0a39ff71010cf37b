package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

const assignmentsTable = "assignments"

var assignmentColumns = []string{
	"a.id", "a.project_id", "a.team_member_id", "a.role_on_project", "a.estimated_hours", "a.hours_this_week",
	"a.hours_consumed", "a.status", "a.confidence_score", "a.notes", "a.assigned_by", "a.created_at", "a.updated_at",
	"p.name AS project_name", "p.priority AS project_priority", "p.deadline AS project_deadline",
	"tm.full_name AS team_member_name",
}

// AssignmentRepository handles database operations for assignments. Reads return the
// assignment joined with its project and team member.
type AssignmentRepository struct {
	*Repository
}

func NewAssignmentRepository(db database.DB, logger ectologger.Logger) *AssignmentRepository {
	return &AssignmentRepository{
		Repository: NewRepository(db, logger),
	}
}

func selectAssignments() *database.SelectBuilder {
	sb := database.NewSelectBuilder()
	sb.Select(assignmentColumns...).
		From(assignmentsTable+" a").
		JoinWithOption(sqlbuilder.LeftJoin, projectsTable+" p", "p.id = a.project_id").
		JoinWithOption(sqlbuilder.LeftJoin, teamMembersTable+" tm", "tm.id = a.team_member_id")
	return sb
}

// ListActiveWithProject returns the active assignments of a team member in creation order.
func (r *AssignmentRepository) ListActiveWithProject(ctx context.Context, personID uuid.UUID) ([]models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "AssignmentRepository.ListActiveWithProject")
	defer span.End()

	sb := selectAssignments()
	sb.Where(sb.Equal("a.team_member_id", personID), sb.Equal("a.status", models.AssignmentStatusActive))
	sb.OrderBy("a.created_at", "a.id")

	query, args := sb.Build()
	assignments := []models.AssignmentWithProject{}
	if err := r.DB().SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, r.fail(ctx, err, map[string]any{"team_member_id": personID}, "failed to list active assignments")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"team_member_id":   personID,
		"assignment_count": len(assignments),
	}).Debugf("Listed active %s", assignmentsTable)
	return assignments, nil
}

func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "AssignmentRepository.List")
	defer span.End()

	sb := selectAssignments()
	if filter.TeamMemberID != nil {
		sb.Where(sb.Equal("a.team_member_id", *filter.TeamMemberID))
	}
	if filter.ProjectID != nil {
		sb.Where(sb.Equal("a.project_id", *filter.ProjectID))
	}
	if filter.Status != "" {
		sb.Where(sb.Equal("a.status", filter.Status))
	}
	sb.OrderBy("a.created_at DESC", "a.id")

	query, args := sb.Build()
	assignments := []models.AssignmentWithProject{}
	if err := r.DB().SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, r.fail(ctx, err, map[string]any{"status": filter.Status}, "failed to list assignments")
	}

	return assignments, nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AssignmentWithProject, error) {
	ctx, span := tracing.StartSpan(ctx, "AssignmentRepository.GetByID")
	defer span.End()

	sb := selectAssignments()
	sb.Where(sb.Equal("a.id", id))

	query, args := sb.Build()
	var assignment models.AssignmentWithProject
	err := r.DB().GetContext(ctx, &assignment, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("assignment %s does not exist", id)
	}
	if err != nil {
		return nil, r.fail(ctx, err, map[string]any{"assignment_id": id}, "failed to get assignment by ID")
	}

	return &assignment, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	ctx, span := tracing.StartSpan(ctx, "AssignmentRepository.Create")
	defer span.End()

	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(assignmentsTable).
		Cols("id", "project_id", "team_member_id", "role_on_project", "estimated_hours", "hours_this_week",
			"hours_consumed", "status", "confidence_score", "notes", "assigned_by", "created_at", "updated_at").
		Values(assignment.ID, assignment.ProjectID, assignment.TeamMemberID, assignment.RoleOnProject,
			assignment.EstimatedHours, assignment.HoursThisWeek, assignment.HoursConsumed, assignment.Status,
			assignment.ConfidenceScore, assignment.Notes, assignment.AssignedBy, database.Now(), database.Now()).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&assignment.CreatedAt, &assignment.UpdatedAt)
	if err != nil {
		return r.fail(ctx, err, map[string]any{
			"assignment_id":  assignment.ID,
			"team_member_id": assignment.TeamMemberID,
			"project_id":     assignment.ProjectID,
		}, "failed to create assignment")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"assignment_id":  assignment.ID,
		"team_member_id": assignment.TeamMemberID,
	}).Debugf("Created %s", assignmentsTable)
	return nil
}

// Update applies the non-nil fields of update and returns the team member the assignment belongs to.
func (r *AssignmentRepository) Update(ctx context.Context, id uuid.UUID, update models.AssignmentUpdate) (uuid.UUID, error) {
	ctx, span := tracing.StartSpan(ctx, "AssignmentRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	assignments := []string{ub.Assign("updated_at", database.Now())}
	if update.HoursThisWeek != nil {
		assignments = append(assignments, ub.Assign("hours_this_week", *update.HoursThisWeek))
	}
	if update.EstimatedHours != nil {
		assignments = append(assignments, ub.Assign("estimated_hours", *update.EstimatedHours))
	}
	if update.Status != nil {
		assignments = append(assignments, ub.Assign("status", *update.Status))
	}
	if update.Notes != nil {
		assignments = append(assignments, ub.Assign("notes", *update.Notes))
	}
	ub.Update(assignmentsTable).Set(assignments...).Where(ub.Equal("id", id))
	ub.SQL("RETURNING team_member_id")

	query, args := ub.Build()
	var personID uuid.UUID
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&personID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, apperrors.NotFound("assignment %s does not exist", id)
	}
	if err != nil {
		return uuid.Nil, r.fail(ctx, err, map[string]any{"assignment_id": id}, "failed to update assignment")
	}

	return personID, nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "AssignmentRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(assignmentsTable).Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return r.fail(ctx, err, map[string]any{"assignment_id": id}, "failed to delete assignment")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NotFound("assignment %s does not exist", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"assignment_id": id,
	}).Debugf("Deleted from %s", assignmentsTable)
	return nil
}
