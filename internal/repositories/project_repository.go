package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

const projectsTable = "projects"

var projectStruct = database.NewStruct(new(models.Project))

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	*Repository
}

func NewProjectRepository(db database.DB, logger ectologger.Logger) *ProjectRepository {
	return &ProjectRepository{
		Repository: NewRepository(db, logger),
	}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.GetByID")
	defer span.End()

	sb := projectStruct.SelectFrom(projectsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var project models.Project
	err := r.DB().GetContext(ctx, &project, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("project %s does not exist", id)
	}
	if err != nil {
		return nil, r.fail(ctx, err, map[string]any{"project_id": id}, "failed to get project by ID")
	}

	return &project, nil
}

// List returns projects soonest deadline first. Projects without a deadline come last.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.List")
	defer span.End()

	sb := projectStruct.SelectFrom(projectsTable)
	if filter.Status != "" {
		sb.Where(sb.Equal("status", filter.Status))
	}
	if filter.Client != "" {
		sb.Where(sb.ILike("client", "%"+filter.Client+"%"))
	}
	sb.OrderBy("deadline ASC NULLS LAST", "name")

	query, args := sb.Build()
	projects := []models.Project{}
	if err := r.DB().SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, r.fail(ctx, err, map[string]any{"status": filter.Status}, "failed to list projects")
	}

	return projects, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.Create")
	defer span.End()

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(projectsTable).
		Cols("id", "name", "client", "status", "phase", "estimated_total_hours", "start_date", "deadline",
			"priority", "notes", "created_at", "updated_at").
		Values(project.ID, project.Name, project.Client, project.Status, project.Phase, project.EstimatedTotalHours,
			project.StartDate, project.Deadline, project.Priority, project.Notes, database.Now(), database.Now()).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return r.fail(ctx, err, map[string]any{"project_id": project.ID}, "failed to create project")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": project.ID,
	}).Debugf("Created %s", projectsTable)
	return nil
}

// Update applies a partial update and returns the stored project.
func (r *ProjectRepository) Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	assignments := []string{ub.Assign("updated_at", database.Now())}
	if update.Name != nil {
		assignments = append(assignments, ub.Assign("name", *update.Name))
	}
	if update.Client != nil {
		assignments = append(assignments, ub.Assign("client", *update.Client))
	}
	if update.Status != nil {
		assignments = append(assignments, ub.Assign("status", *update.Status))
	}
	if update.Phase != nil {
		assignments = append(assignments, ub.Assign("phase", *update.Phase))
	}
	if update.EstimatedTotalHours != nil {
		assignments = append(assignments, ub.Assign("estimated_total_hours", *update.EstimatedTotalHours))
	}
	if update.StartDate != nil {
		assignments = append(assignments, ub.Assign("start_date", *update.StartDate))
	}
	if update.Deadline != nil {
		assignments = append(assignments, ub.Assign("deadline", *update.Deadline))
	}
	if update.Priority != nil {
		assignments = append(assignments, ub.Assign("priority", *update.Priority))
	}
	if update.Notes != nil {
		assignments = append(assignments, ub.Assign("notes", *update.Notes))
	}
	ub.Update(projectsTable).Set(assignments...).Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(ctx, err, map[string]any{"project_id": id}, "failed to update project")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, apperrors.NotFound("project %s does not exist", id)
	}

	return r.GetByID(ctx, id)
}

// Delete removes the project. Its assignments go with it.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(projectsTable).Where(db.Equal("id", id))

	query, args := db.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return r.fail(ctx, err, map[string]any{"project_id": id}, "failed to delete project")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NotFound("project %s does not exist", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": id,
	}).Debugf("Deleted %s", projectsTable)
	return nil
}
