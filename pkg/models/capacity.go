package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CapacitySnapshot is the derived load of one team member for one week, keyed by
// (TeamMemberID, WeekStartDate). UtilizationPct is kept at full precision.
type CapacitySnapshot struct {
	ID                 uuid.UUID       `json:"id"`
	TeamMemberID       uuid.UUID       `json:"team_member_id"`
	FullName           string          `json:"full_name"`
	Role               string          `json:"role"`
	WeekStartDate      time.Time       `json:"week_start_date"`
	TotalCapacityHours decimal.Decimal `json:"total_capacity_hours"`
	AllocatedHours     decimal.Decimal `json:"allocated_hours"`
	AvailableHours     decimal.Decimal `json:"available_hours"`
	UtilizationPct     decimal.Decimal `json:"utilization_pct"`
	Overallocated      bool            `json:"overallocated"`
	CalculatedAt       time.Time       `json:"calculated_at"`
}

// CapacityConflict is produced fresh on every detection pass and never stored.
type CapacityConflict struct {
	Type                ConflictType `json:"type"`
	TeamMemberID        uuid.UUID    `json:"team_member_id"`
	TeamMemberName      string       `json:"team_member_name"`
	AffectedProjects    []string     `json:"affected_projects"`
	Severity            Severity     `json:"severity"`
	Description         string       `json:"description"`
	SuggestedResolution *string      `json:"suggested_resolution"`
}
