package handlers

import (
	"context"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	assignmentsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/assignment"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/utils"
)

// defaultProjectRole applies to members added from a project's page without a role.
const defaultProjectRole = "support"

type ProjectRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
}

// ProjectService covers the project operations that touch capacity.
type ProjectService interface {
	Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Recommend(ctx context.Context, id uuid.UUID) (*models.StaffingRecommendation, error)
}

type ProjectAssigner interface {
	AddToProject(ctx context.Context, req assignmentsvc.NewAssignment) (*models.AssignmentWithProject, error)
}

// ProjectHandler handles project API requests
type ProjectHandler struct {
	repo     ProjectRepo
	service  ProjectService
	assigner ProjectAssigner
}

func NewProjectHandler(repo ProjectRepo, service ProjectService, assigner ProjectAssigner) *ProjectHandler {
	return &ProjectHandler{
		repo:     repo,
		service:  service,
		assigner: assigner,
	}
}

type CreateProjectRequest struct {
	Name                string           `json:"name" validate:"required"`
	Client              *string          `json:"client"`
	Status              string           `json:"status" validate:"omitempty,oneof=briefing active on-hold completed"`
	Phase               *string          `json:"phase"`
	EstimatedTotalHours *decimal.Decimal `json:"estimated_total_hours"`
	StartDate           *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Deadline            *string          `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Priority            string           `json:"priority" validate:"omitempty,oneof=low normal medium high urgent"`
	Notes               *string          `json:"notes"`
}

// UpdateProjectRequest is a partial update. Absent fields are left untouched.
type UpdateProjectRequest struct {
	Name                *string          `json:"name"`
	Client              *string          `json:"client"`
	Status              *string          `json:"status" validate:"omitempty,oneof=briefing active on-hold completed"`
	Phase               *string          `json:"phase"`
	EstimatedTotalHours *decimal.Decimal `json:"estimated_total_hours"`
	StartDate           *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Deadline            *string          `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Priority            *string          `json:"priority" validate:"omitempty,oneof=low normal medium high urgent"`
	Notes               *string          `json:"notes"`
}

func (r UpdateProjectRequest) toUpdate() models.ProjectUpdate {
	update := models.ProjectUpdate{
		Name:                r.Name,
		Client:              r.Client,
		Phase:               r.Phase,
		EstimatedTotalHours: r.EstimatedTotalHours,
		StartDate:           parseDate(r.StartDate),
		Deadline:            parseDate(r.Deadline),
		Notes:               r.Notes,
	}
	if r.Status != nil {
		status := models.ProjectStatus(*r.Status)
		update.Status = &status
	}
	if r.Priority != nil {
		priority := models.Priority(*r.Priority)
		update.Priority = &priority
	}
	return update
}

// AddProjectMemberRequest puts a team member on the project in the path.
type AddProjectMemberRequest struct {
	TeamMemberID   uuid.UUID       `json:"team_member_id" validate:"required"`
	RoleOnProject  string          `json:"role_on_project"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	HoursThisWeek  decimal.Decimal `json:"hours_this_week"`
	Notes          *string         `json:"notes"`
}

type DeleteProjectResponse struct {
	Status    string    `json:"status"`
	ProjectID uuid.UUID `json:"project_id"`
}

// RegisterRoutes registers the project routes
func (h *ProjectHandler) RegisterRoutes(g *echo.Group) {
	projects := g.Group("/projects")
	projects.GET("", h.List)
	projects.GET("/:id", h.Get)
	projects.POST("", h.Create)
	projects.PATCH("/:id", h.Update)
	projects.DELETE("/:id", h.Delete)
	projects.GET("/:id/recommend", h.Recommend)
	projects.POST("/:id/assignments", h.AddMember)
}

// List handles GET /projects
func (h *ProjectHandler) List(c echo.Context) error {
	filter := models.ProjectFilter{
		Status: models.ProjectStatus(c.QueryParam("status")),
		Client: c.QueryParam("client"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return BadRequest("invalid status")
	}

	projects, err := h.repo.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return SuccessResponse(c, ectolinq.Map(projects, NewProjectResponse))
}

// Get handles GET /projects/:id
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	project, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewProjectResponse(*project))
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c echo.Context) error {
	req, err := utils.BindRequest[CreateProjectRequest](c)
	if err != nil {
		return err
	}

	project := &models.Project{
		ID:       uuid.New(),
		Name:     req.Name,
		Client:   req.Client,
		Status:   models.ProjectStatusActive,
		Phase:    req.Phase,
		Priority: models.PriorityNormal,
		Notes:    req.Notes,
	}
	if req.Status != "" {
		project.Status = models.ProjectStatus(req.Status)
	}
	if req.Priority != "" {
		project.Priority = models.Priority(req.Priority)
	}
	if req.EstimatedTotalHours != nil {
		if req.EstimatedTotalHours.IsNegative() {
			return BadRequest("estimated_total_hours must not be negative")
		}
		project.EstimatedTotalHours = decimal.NewNullDecimal(*req.EstimatedTotalHours)
	}
	project.StartDate = parseDate(req.StartDate)
	project.Deadline = parseDate(req.Deadline)

	if err := h.repo.Create(c.Request().Context(), project); err != nil {
		return err
	}

	return CreatedResponse(c, NewProjectResponse(*project))
}

// Update handles PATCH /projects/:id
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[UpdateProjectRequest](c)
	if err != nil {
		return err
	}

	project, err := h.service.Update(c.Request().Context(), id, req.toUpdate())
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewProjectResponse(*project))
}

// Delete handles DELETE /projects/:id
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return SuccessResponse(c, DeleteProjectResponse{Status: "deleted", ProjectID: id})
}

// Recommend handles GET /projects/:id/recommend
func (h *ProjectHandler) Recommend(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	recommendation, err := h.service.Recommend(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewStaffingRecommendationResponse(*recommendation))
}

// AddMember handles POST /projects/:id/assignments
func (h *ProjectHandler) AddMember(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[AddProjectMemberRequest](c)
	if err != nil {
		return err
	}

	role := req.RoleOnProject
	if role == "" {
		role = defaultProjectRole
	}
	confidence := 1.0

	created, err := h.assigner.AddToProject(c.Request().Context(), assignmentsvc.NewAssignment{
		ProjectID:       id,
		TeamMemberID:    req.TeamMemberID,
		RoleOnProject:   role,
		EstimatedHours:  req.EstimatedHours,
		HoursThisWeek:   req.HoursThisWeek,
		ConfidenceScore: &confidence,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}

	return CreatedResponse(c, NewAssignmentResponse(*created))
}

// parseDate parses a date the validator already accepted.
func parseDate(value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		return nil
	}
	return &t
}
