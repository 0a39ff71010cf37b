package handlers

import (
	"context"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/utils"
)

type PersonRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	List(ctx context.Context) ([]models.Person, error)
	ListActive(ctx context.Context) ([]models.Person, error)
	Create(ctx context.Context, person *models.Person) error
	Update(ctx context.Context, person *models.Person) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// SnapshotComputer recomputes a member's snapshot when their capacity changes.
type SnapshotComputer interface {
	ComputeSnapshot(ctx context.Context, personID uuid.UUID, week *time.Time) (models.CapacitySnapshot, error)
}

// TeamHandler handles team member API requests
type TeamHandler struct {
	repo     PersonRepo
	capacity SnapshotComputer
	logger   ectologger.Logger
}

func NewTeamHandler(repo PersonRepo, capacity SnapshotComputer, logger ectologger.Logger) *TeamHandler {
	return &TeamHandler{
		repo:     repo,
		capacity: capacity,
		logger:   logger,
	}
}

// TeamMemberRequest is the body for creating or replacing a team member. A missing
// weekly_capacity_hours means the default capacity.
type TeamMemberRequest struct {
	FullName            string           `json:"full_name" validate:"required"`
	Email               *string          `json:"email" validate:"omitempty,email"`
	Role                string           `json:"role"`
	WeeklyCapacityHours *decimal.Decimal `json:"weekly_capacity_hours"`
	Active              *bool            `json:"active"`
}

func (r TeamMemberRequest) apply(person *models.Person) error {
	if r.WeeklyCapacityHours != nil && r.WeeklyCapacityHours.IsNegative() {
		return BadRequest("weekly_capacity_hours must not be negative")
	}

	person.FullName = r.FullName
	person.Email = r.Email
	person.Role = r.Role
	if person.Role == "" {
		person.Role = models.DefaultRole
	}
	person.WeeklyCapacityHours = decimal.NullDecimal{}
	if r.WeeklyCapacityHours != nil {
		person.WeeklyCapacityHours = decimal.NewNullDecimal(*r.WeeklyCapacityHours)
	}
	person.Active = r.Active == nil || *r.Active
	return nil
}

// RegisterRoutes registers the team routes
func (h *TeamHandler) RegisterRoutes(g *echo.Group) {
	team := g.Group("/team")
	team.GET("", h.List)
	team.GET("/:id", h.Get)
	team.POST("", h.Create)
	team.PUT("/:id", h.Update)
	team.DELETE("/:id", h.Deactivate)
}

type DeactivateTeamMemberResponse struct {
	Status       string    `json:"status"`
	TeamMemberID uuid.UUID `json:"team_member_id"`
}

// List handles GET /team. Inactive members are included with include_inactive=true.
func (h *TeamHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	list := h.repo.ListActive
	if c.QueryParam("include_inactive") == "true" {
		list = h.repo.List
	}

	people, err := list(ctx)
	if err != nil {
		return err
	}

	return SuccessResponse(c, ectolinq.Map(people, NewPersonResponse))
}

// Get handles GET /team/:id
func (h *TeamHandler) Get(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	person, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewPersonResponse(*person))
}

// Create handles POST /team
func (h *TeamHandler) Create(c echo.Context) error {
	req, err := utils.BindRequest[TeamMemberRequest](c)
	if err != nil {
		return err
	}

	person := &models.Person{ID: uuid.New()}
	if err := req.apply(person); err != nil {
		return err
	}

	if err := h.repo.Create(c.Request().Context(), person); err != nil {
		return err
	}

	return CreatedResponse(c, NewPersonResponse(*person))
}

// Update handles PUT /team/:id
func (h *TeamHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[TeamMemberRequest](c)
	if err != nil {
		return err
	}

	person := &models.Person{ID: id}
	if err := req.apply(person); err != nil {
		return err
	}

	if err := h.repo.Update(ctx, person); err != nil {
		return err
	}

	if person.Active {
		if _, err := h.capacity.ComputeSnapshot(ctx, person.ID, nil); err != nil {
			h.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"team_member_id": person.ID,
			}).Warn("Failed to recompute capacity snapshot after team member update")
		}
	}

	return SuccessResponse(c, NewPersonResponse(*person))
}

// Deactivate handles DELETE /team/:id. The member leaves the fleet report; their assignments and
// snapshots are kept for history.
func (h *TeamHandler) Deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	return SuccessResponse(c, DeactivateTeamMemberResponse{Status: "deactivated", TeamMemberID: id})
}
