package handlers

import (
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

// Responses carry hours as JSON numbers. Utilization is rounded to one decimal place here and
// nowhere else.

func hours(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func percent(d decimal.Decimal) float64 {
	return d.Round(1).InexactFloat64()
}

func nullHours(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}

func date(t time.Time) string {
	return t.Format(capacity.DateLayout)
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := date(*t)
	return &v
}

type SnapshotResponse struct {
	ID                 *uuid.UUID `json:"id,omitempty"`
	TeamMemberID       uuid.UUID  `json:"team_member_id"`
	FullName           string     `json:"full_name"`
	Role               string     `json:"role"`
	WeekStartDate      string     `json:"week_start_date"`
	TotalCapacityHours float64    `json:"total_capacity_hours"`
	AllocatedHours     float64    `json:"allocated_hours"`
	AvailableHours     float64    `json:"available_hours"`
	UtilizationPct     float64    `json:"utilization_pct"`
	Overallocated      bool       `json:"overallocated"`
	CalculatedAt       time.Time  `json:"calculated_at"`
}

func NewSnapshotResponse(s models.CapacitySnapshot) SnapshotResponse {
	resp := SnapshotResponse{
		TeamMemberID:       s.TeamMemberID,
		FullName:           s.FullName,
		Role:               s.Role,
		WeekStartDate:      date(s.WeekStartDate),
		TotalCapacityHours: hours(s.TotalCapacityHours),
		AllocatedHours:     hours(s.AllocatedHours),
		AvailableHours:     hours(s.AvailableHours),
		UtilizationPct:     percent(s.UtilizationPct),
		Overallocated:      s.Overallocated,
		CalculatedAt:       s.CalculatedAt,
	}
	if s.ID != uuid.Nil {
		id := s.ID
		resp.ID = &id
	}
	return resp
}

func NewSnapshotResponses(snapshots []models.CapacitySnapshot) []SnapshotResponse {
	return ectolinq.Map(snapshots, NewSnapshotResponse)
}

type ForecastMemberResponse struct {
	TeamMemberID   uuid.UUID `json:"team_member_id"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	Capacity       float64   `json:"capacity"`
	Allocated      float64   `json:"allocated"`
	Available      float64   `json:"available"`
	UtilizationPct float64   `json:"utilization_pct"`
	Overallocated  bool      `json:"overallocated"`
}

type ForecastWeekResponse struct {
	WeekStart  string                   `json:"week_start"`
	WeekNumber int                      `json:"week_number"`
	Members    []ForecastMemberResponse `json:"members"`
}

type ForecastResponse struct {
	Forecast []ForecastWeekResponse `json:"forecast"`
	Weeks    int                    `json:"weeks"`
}

type SummaryResponse struct {
	TotalTeamMembers    int     `json:"total_team_members"`
	TotalCapacityHours  float64 `json:"total_capacity_hours"`
	TotalAllocatedHours float64 `json:"total_allocated_hours"`
	TotalAvailableHours float64 `json:"total_available_hours"`
	AverageUtilization  float64 `json:"average_utilization"`
	OverallocatedCount  int     `json:"overallocated_count"`
	ConflictCount       int     `json:"conflict_count"`
	WeekStart           string  `json:"week_start"`
}

type RecalculatedMemberResponse struct {
	TeamMemberID   uuid.UUID `json:"team_member_id"`
	FullName       string    `json:"full_name"`
	AllocatedHours float64   `json:"allocated_hours"`
	UtilizationPct float64   `json:"utilization_pct"`
}

type RecalculationErrorResponse struct {
	TeamMemberID uuid.UUID `json:"team_member_id"`
	FullName     string    `json:"full_name"`
	Error        string    `json:"error"`
}

type RecalculateResponse struct {
	Recalculated []RecalculatedMemberResponse `json:"recalculated"`
	Errors       []RecalculationErrorResponse `json:"errors"`
	Total        int                          `json:"total"`
}

type AssignmentResponse struct {
	ID              uuid.UUID               `json:"id"`
	ProjectID       uuid.UUID               `json:"project_id"`
	ProjectName     *string                 `json:"project_name"`
	TeamMemberID    uuid.UUID               `json:"team_member_id"`
	TeamMemberName  *string                 `json:"team_member_name"`
	RoleOnProject   string                  `json:"role_on_project"`
	EstimatedHours  float64                 `json:"estimated_hours"`
	HoursThisWeek   float64                 `json:"hours_this_week"`
	HoursConsumed   float64                 `json:"hours_consumed"`
	Status          models.AssignmentStatus `json:"status"`
	ConfidenceScore *float64                `json:"confidence_score"`
	Notes           *string                 `json:"notes,omitempty"`
	AssignedBy      models.AssignmentSource `json:"assigned_by"`
}

func NewAssignmentResponse(a models.AssignmentWithProject) AssignmentResponse {
	return AssignmentResponse{
		ID:              a.ID,
		ProjectID:       a.ProjectID,
		ProjectName:     a.ProjectName,
		TeamMemberID:    a.TeamMemberID,
		TeamMemberName:  a.TeamMemberName,
		RoleOnProject:   a.RoleOnProject,
		EstimatedHours:  hours(a.EstimatedHours),
		HoursThisWeek:   hours(a.HoursThisWeek),
		HoursConsumed:   hours(a.HoursConsumed),
		Status:          a.Status,
		ConfidenceScore: a.ConfidenceScore,
		Notes:           a.Notes,
		AssignedBy:      a.AssignedBy,
	}
}

type PersonResponse struct {
	ID                  uuid.UUID `json:"id"`
	FullName            string    `json:"full_name"`
	Email               *string   `json:"email"`
	Role                string    `json:"role"`
	WeeklyCapacityHours float64   `json:"weekly_capacity_hours"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewPersonResponse reports the effective capacity, so a member without one shows the default.
func NewPersonResponse(p models.Person) PersonResponse {
	return PersonResponse{
		ID:                  p.ID,
		FullName:            p.FullName,
		Email:               p.Email,
		Role:                p.Role,
		WeeklyCapacityHours: hours(p.Capacity()),
		Active:              p.Active,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

type ProjectResponse struct {
	ID                  uuid.UUID            `json:"id"`
	Name                string               `json:"name"`
	Client              *string              `json:"client"`
	Status              models.ProjectStatus `json:"status"`
	Phase               *string              `json:"phase"`
	EstimatedTotalHours *float64             `json:"estimated_total_hours"`
	StartDate           *string              `json:"start_date"`
	Deadline            *string              `json:"deadline"`
	Priority            models.Priority      `json:"priority"`
	Notes               *string              `json:"notes"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func NewProjectResponse(p models.Project) ProjectResponse {
	return ProjectResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Client:              p.Client,
		Status:              p.Status,
		Phase:               p.Phase,
		EstimatedTotalHours: nullHours(p.EstimatedTotalHours),
		StartDate:           optionalDate(p.StartDate),
		Deadline:            optionalDate(p.Deadline),
		Priority:            p.Priority,
		Notes:               p.Notes,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

type RecommendationResponse struct {
	TeamMemberID   *uuid.UUID `json:"team_member_id"`
	TeamMemberName string     `json:"team_member_name"`
	SuggestedRole  string     `json:"suggested_role"`
	SuggestedHours float64    `json:"suggested_hours"`
	AvailableHours *float64   `json:"available_hours"`
	MatchReason    string     `json:"match_reason"`
	Confidence     float64    `json:"confidence"`
	Priority       string     `json:"priority"`
}

type StaffingRecommendationResponse struct {
	Recommendations      []RecommendationResponse `json:"recommendations"`
	TeamCompositionNotes string                   `json:"team_composition_notes"`
	Warnings             []string                 `json:"warnings"`
}

func NewStaffingRecommendationResponse(r models.StaffingRecommendation) StaffingRecommendationResponse {
	resp := StaffingRecommendationResponse{
		Recommendations:      make([]RecommendationResponse, 0, len(r.Recommendations)),
		TeamCompositionNotes: r.TeamCompositionNotes,
		Warnings:             r.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	for _, rec := range r.Recommendations {
		var available *float64
		if rec.AvailableHours != nil {
			v := hours(*rec.AvailableHours)
			available = &v
		}
		resp.Recommendations = append(resp.Recommendations, RecommendationResponse{
			TeamMemberID:   rec.TeamMemberID,
			TeamMemberName: rec.TeamMemberName,
			SuggestedRole:  rec.SuggestedRole,
			SuggestedHours: rec.SuggestedHours,
			AvailableHours: available,
			MatchReason:    rec.MatchReason,
			Confidence:     rec.Confidence,
			Priority:       rec.Priority,
		})
	}
	return resp
}
