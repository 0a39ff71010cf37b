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

const teamMembersTable = "team_members"

var personStruct = database.NewStruct(new(models.Person))

// PersonRepository handles database operations for team members
type PersonRepository struct {
	*Repository
}

func NewPersonRepository(db database.DB, logger ectologger.Logger) *PersonRepository {
	return &PersonRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByID returns the team member with id, active or not.
func (r *PersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "PersonRepository.GetByID")
	defer span.End()

	sb := personStruct.SelectFrom(teamMembersTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var person models.Person
	err := r.DB().GetContext(ctx, &person, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("team member %s does not exist", id)
	}
	if err != nil {
		return nil, r.fail(ctx, err, map[string]any{"team_member_id": id}, "failed to get team member by ID")
	}

	return &person, nil
}

// ListActive returns active team members ordered by name.
func (r *PersonRepository) ListActive(ctx context.Context) ([]models.Person, error) {
	return r.list(ctx, true)
}

// List returns every team member ordered by name.
func (r *PersonRepository) List(ctx context.Context) ([]models.Person, error) {
	return r.list(ctx, false)
}

func (r *PersonRepository) list(ctx context.Context, activeOnly bool) ([]models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "PersonRepository.List")
	defer span.End()

	sb := personStruct.SelectFrom(teamMembersTable)
	if activeOnly {
		sb.Where(sb.Equal("active", true))
	}
	sb.OrderBy("full_name", "id")

	query, args := sb.Build()
	people := []models.Person{}
	if err := r.DB().SelectContext(ctx, &people, query, args...); err != nil {
		return nil, r.fail(ctx, err, map[string]any{"active_only": activeOnly}, "failed to list team members")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"team_member_count": len(people),
		"active_only":       activeOnly,
	}).Debugf("Listed %s", teamMembersTable)
	return people, nil
}

func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	ctx, span := tracing.StartSpan(ctx, "PersonRepository.Create")
	defer span.End()

	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(teamMembersTable).
		Cols("id", "full_name", "email", "role", "weekly_capacity_hours", "active", "created_at", "updated_at").
		Values(person.ID, person.FullName, person.Email, person.Role, person.WeeklyCapacityHours, person.Active,
			database.Now(), database.Now()).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		return r.fail(ctx, err, map[string]any{"team_member_id": person.ID}, "failed to create team member")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"team_member_id": person.ID,
	}).Debugf("Created %s", teamMembersTable)
	return nil
}

func (r *PersonRepository) Update(ctx context.Context, person *models.Person) error {
	ctx, span := tracing.StartSpan(ctx, "PersonRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(teamMembersTable).
		Set(
			ub.Assign("full_name", person.FullName),
			ub.Assign("email", person.Email),
			ub.Assign("role", person.Role),
			ub.Assign("weekly_capacity_hours", person.WeeklyCapacityHours),
			ub.Assign("active", person.Active),
			ub.Assign("updated_at", database.Now()),
		).
		Where(ub.Equal("id", person.ID))
	ub.SQL("RETURNING created_at, updated_at")

	query, args := ub.Build()
	err := r.DB().QueryRowContext(ctx, query, args...).Scan(&person.CreatedAt, &person.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("team member %s does not exist", person.ID)
	}
	if err != nil {
		return r.fail(ctx, err, map[string]any{"team_member_id": person.ID}, "failed to update team member")
	}

	return nil
}

// Deactivate hides the team member from active lists. Their history stays in place.
func (r *PersonRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "PersonRepository.Deactivate")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(teamMembersTable).
		Set(
			ub.Assign("active", false),
			ub.Assign("updated_at", database.Now()),
		).
		Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return r.fail(ctx, err, map[string]any{"team_member_id": id}, "failed to deactivate team member")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NotFound("team member %s does not exist", id)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"team_member_id": id,
	}).Info("Deactivated team member")
	return nil
}
