package handlers

import (
	"context"

	"github.com/Gobusters/ectolinq"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	assignmentsvc "github.com/tom2tomtomtom/traffic-manager/internal/services/assignment"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/utils"
)

type AssignmentService interface {
	Create(ctx context.Context, req assignmentsvc.NewAssignment) (*models.AssignmentWithProject, error)
	CreateBulk(ctx context.Context, reqs []assignmentsvc.NewAssignment) (assignmentsvc.BulkResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AssignmentWithProject, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithProject, error)
	Update(ctx context.Context, id uuid.UUID, update models.AssignmentUpdate) (*models.AssignmentWithProject, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssignmentHandler handles assignment API requests
type AssignmentHandler struct {
	service AssignmentService
}

func NewAssignmentHandler(service AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

type CreateAssignmentRequest struct {
	ProjectID       uuid.UUID       `json:"project_id" validate:"required"`
	TeamMemberID    uuid.UUID       `json:"team_member_id" validate:"required"`
	RoleOnProject   string          `json:"role_on_project"`
	EstimatedHours  decimal.Decimal `json:"estimated_hours"`
	HoursThisWeek   decimal.Decimal `json:"hours_this_week"`
	ConfidenceScore *float64        `json:"confidence_score" validate:"omitempty,gte=0,lte=1"`
	Notes           *string         `json:"notes"`
}

func (r CreateAssignmentRequest) toNew() assignmentsvc.NewAssignment {
	return assignmentsvc.NewAssignment{
		ProjectID:       r.ProjectID,
		TeamMemberID:    r.TeamMemberID,
		RoleOnProject:   r.RoleOnProject,
		EstimatedHours:  r.EstimatedHours,
		HoursThisWeek:   r.HoursThisWeek,
		ConfidenceScore: r.ConfidenceScore,
		Notes:           r.Notes,
	}
}

// BulkCreateAssignmentsRequest items are checked one by one; invalid items are skipped.
type BulkCreateAssignmentsRequest struct {
	TranscriptID *uuid.UUID                `json:"transcript_id"`
	Assignments  []CreateAssignmentRequest `json:"assignments" validate:"required"`
}

type UpdateAssignmentRequest struct {
	HoursThisWeek  *decimal.Decimal         `json:"hours_this_week"`
	EstimatedHours *decimal.Decimal         `json:"estimated_hours"`
	Status         *models.AssignmentStatus `json:"status"`
	Notes          *string                  `json:"notes"`
}

type BulkCreateAssignmentsResponse struct {
	Created   []AssignmentResponse      `json:"created"`
	Conflicts []models.CapacityConflict `json:"conflicts"`
}

type AssignmentListResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
}

type DeleteAssignmentResponse struct {
	Status       string    `json:"status"`
	AssignmentID uuid.UUID `json:"assignment_id"`
}

// RegisterRoutes registers the assignment routes
func (h *AssignmentHandler) RegisterRoutes(g *echo.Group) {
	assignments := g.Group("/assignments")
	assignments.POST("", h.Create)
	assignments.POST("/bulk", h.CreateBulk)
	assignments.GET("", h.List)
	assignments.GET("/:id", h.Get)
	assignments.PATCH("/:id", h.Update)
	assignments.DELETE("/:id", h.Delete)
}

// Create handles POST /assignments
func (h *AssignmentHandler) Create(c echo.Context) error {
	req, err := utils.BindRequest[CreateAssignmentRequest](c)
	if err != nil {
		return err
	}

	created, err := h.service.Create(c.Request().Context(), req.toNew())
	if err != nil {
		return err
	}

	return CreatedResponse(c, NewAssignmentResponse(*created))
}

// CreateBulk handles POST /assignments/bulk
func (h *AssignmentHandler) CreateBulk(c echo.Context) error {
	var req BulkCreateAssignmentsRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	if req.Assignments == nil {
		return BadRequest("assignments is required")
	}

	result, err := h.service.CreateBulk(c.Request().Context(), ectolinq.Map(req.Assignments, CreateAssignmentRequest.toNew))
	if err != nil {
		return err
	}

	return SuccessResponse(c, BulkCreateAssignmentsResponse{
		Created:   ectolinq.Map(result.Created, NewAssignmentResponse),
		Conflicts: result.Conflicts,
	})
}

// List handles GET /assignments. Without a status parameter only active assignments are
// returned; an empty status returns every status.
func (h *AssignmentHandler) List(c echo.Context) error {
	filter := models.AssignmentFilter{Status: models.AssignmentStatusActive}
	if _, ok := c.QueryParams()["status"]; ok {
		filter.Status = models.AssignmentStatus(c.QueryParam("status"))
	}

	var err error
	if filter.TeamMemberID, err = QueryUUID(c, "team_member_id"); err != nil {
		return err
	}
	if filter.ProjectID, err = QueryUUID(c, "project_id"); err != nil {
		return err
	}

	assignments, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return SuccessResponse(c, AssignmentListResponse{Assignments: ectolinq.Map(assignments, NewAssignmentResponse)})
}

// Get handles GET /assignments/:id
func (h *AssignmentHandler) Get(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	assignment, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewAssignmentResponse(*assignment))
}

// Update handles PATCH /assignments/:id
func (h *AssignmentHandler) Update(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}

	updated, err := h.service.Update(c.Request().Context(), id, models.AssignmentUpdate{
		HoursThisWeek:  req.HoursThisWeek,
		EstimatedHours: req.EstimatedHours,
		Status:         req.Status,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewAssignmentResponse(*updated))
}

// Delete handles DELETE /assignments/:id
func (h *AssignmentHandler) Delete(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return SuccessResponse(c, DeleteAssignmentResponse{Status: "deleted", AssignmentID: id})
}
