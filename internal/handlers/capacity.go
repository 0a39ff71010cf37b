package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	capacitysvc "github.com/tom2tomtomtom/traffic-manager/internal/services/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

type CapacityService interface {
	ComputeSnapshot(ctx context.Context, personID uuid.UUID, week *time.Time) (models.CapacitySnapshot, error)
	ReportCurrentWeek(ctx context.Context) ([]models.CapacitySnapshot, error)
	DetectConflicts(ctx context.Context, week *time.Time) ([]models.CapacityConflict, error)
	Forecast(ctx context.Context, weeks int) ([]capacitysvc.ForecastWeek, error)
	Summary(ctx context.Context) (capacitysvc.Summary, error)
	Recalculate(ctx context.Context) (capacitysvc.RecalculationResult, error)
}

// CapacityHandler serves team capacity reports
type CapacityHandler struct {
	service CapacityService
}

func NewCapacityHandler(service CapacityService) *CapacityHandler {
	return &CapacityHandler{service: service}
}

// RegisterRoutes registers the capacity routes
func (h *CapacityHandler) RegisterRoutes(g *echo.Group) {
	capacity := g.Group("/capacity")
	capacity.GET("/current-week", h.CurrentWeek)
	capacity.GET("/conflicts", h.Conflicts)
	capacity.GET("/forecast", h.Forecast)
	capacity.GET("/team-member/:id", h.TeamMember)
	capacity.GET("/summary", h.Summary)
	capacity.POST("/recalculate", h.Recalculate)
}

// CurrentWeek handles GET /capacity/current-week
func (h *CapacityHandler) CurrentWeek(c echo.Context) error {
	snapshots, err := h.service.ReportCurrentWeek(c.Request().Context())
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewSnapshotResponses(snapshots))
}

// Conflicts handles GET /capacity/conflicts
func (h *CapacityHandler) Conflicts(c echo.Context) error {
	week, err := QueryWeek(c, "week")
	if err != nil {
		return err
	}

	conflicts, err := h.service.DetectConflicts(c.Request().Context(), week)
	if err != nil {
		return err
	}

	return SuccessResponse(c, conflicts)
}

// Forecast handles GET /capacity/forecast
func (h *CapacityHandler) Forecast(c echo.Context) error {
	weeks, err := QueryInt(c, "weeks", capacitysvc.DefaultForecastWeeks)
	if err != nil {
		return err
	}

	forecast, err := h.service.Forecast(c.Request().Context(), weeks)
	if err != nil {
		return err
	}

	resp := ForecastResponse{Forecast: make([]ForecastWeekResponse, 0, len(forecast)), Weeks: weeks}
	for _, week := range forecast {
		members := make([]ForecastMemberResponse, 0, len(week.Members))
		for _, m := range week.Members {
			members = append(members, ForecastMemberResponse{
				TeamMemberID:   m.TeamMemberID,
				FullName:       m.FullName,
				Role:           m.Role,
				Capacity:       hours(m.TotalCapacityHours),
				Allocated:      hours(m.AllocatedHours),
				Available:      hours(m.AvailableHours),
				UtilizationPct: percent(m.UtilizationPct),
				Overallocated:  m.Overallocated,
			})
		}
		resp.Forecast = append(resp.Forecast, ForecastWeekResponse{
			WeekStart:  date(week.WeekStart),
			WeekNumber: week.WeekNumber,
			Members:    members,
		})
	}

	return SuccessResponse(c, resp)
}

// TeamMember handles GET /capacity/team-member/:id
func (h *CapacityHandler) TeamMember(c echo.Context) error {
	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	week, err := QueryWeek(c, "week")
	if err != nil {
		return err
	}

	snapshot, err := h.service.ComputeSnapshot(c.Request().Context(), id, week)
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewSnapshotResponse(snapshot))
}

// Summary handles GET /capacity/summary
func (h *CapacityHandler) Summary(c echo.Context) error {
	summary, err := h.service.Summary(c.Request().Context())
	if err != nil {
		return err
	}

	return SuccessResponse(c, SummaryResponse{
		TotalTeamMembers:    summary.TotalTeamMembers,
		TotalCapacityHours:  hours(summary.TotalCapacityHours),
		TotalAllocatedHours: hours(summary.TotalAllocatedHours),
		TotalAvailableHours: hours(summary.TotalAvailableHours),
		AverageUtilization:  percent(summary.AverageUtilization),
		OverallocatedCount:  summary.OverallocatedCount,
		ConflictCount:       summary.ConflictCount,
		WeekStart:           date(summary.WeekStart),
	})
}

// Recalculate handles POST /capacity/recalculate
func (h *CapacityHandler) Recalculate(c echo.Context) error {
	result, err := h.service.Recalculate(c.Request().Context())
	if err != nil {
		return err
	}

	return SuccessResponse(c, NewRecalculateResponse(result))
}

func NewRecalculateResponse(result capacitysvc.RecalculationResult) RecalculateResponse {
	resp := RecalculateResponse{
		Recalculated: make([]RecalculatedMemberResponse, 0, len(result.Recalculated)),
		Errors:       make([]RecalculationErrorResponse, 0, len(result.Errors)),
		Total:        result.Total,
	}
	for _, r := range result.Recalculated {
		resp.Recalculated = append(resp.Recalculated, RecalculatedMemberResponse{
			TeamMemberID:   r.TeamMemberID,
			FullName:       r.FullName,
			AllocatedHours: hours(r.AllocatedHours),
			UtilizationPct: percent(r.UtilizationPct),
		})
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, RecalculationErrorResponse(e))
	}
	return resp
}
