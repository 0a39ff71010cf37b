package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Assignment links one team member to one project for a number of hours.
type Assignment struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	ProjectID       uuid.UUID        `db:"project_id" json:"project_id"`
	TeamMemberID    uuid.UUID        `db:"team_member_id" json:"team_member_id"`
	RoleOnProject   string           `db:"role_on_project" json:"role_on_project"`
	EstimatedHours  decimal.Decimal  `db:"estimated_hours" json:"estimated_hours"`
	HoursThisWeek   decimal.Decimal  `db:"hours_this_week" json:"hours_this_week"`
	HoursConsumed   decimal.Decimal  `db:"hours_consumed" json:"hours_consumed"`
	Status          AssignmentStatus `db:"status" json:"status"`
	ConfidenceScore *float64         `db:"confidence_score" json:"confidence_score"`
	Notes           *string          `db:"notes" json:"notes,omitempty"`
	AssignedBy      AssignmentSource `db:"assigned_by" json:"assigned_by"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (a Assignment) IsActive() bool {
	return a.Status == AssignmentStatusActive
}

// AssignmentWithProject is an assignment joined with the project and team member it references.
// The joined fields are nil when the referenced row is missing.
type AssignmentWithProject struct {
	Assignment
	ProjectName     *string    `db:"project_name" json:"project_name"`
	ProjectPriority *Priority  `db:"project_priority" json:"project_priority,omitempty"`
	ProjectDeadline *time.Time `db:"project_deadline" json:"project_deadline,omitempty"`
	TeamMemberName  *string    `db:"team_member_name" json:"team_member_name"`
}

// ResolvedProjectName returns the project's name and whether one is known.
func (a AssignmentWithProject) ResolvedProjectName() (string, bool) {
	if a.ProjectName == nil || *a.ProjectName == "" {
		return "", false
	}
	return *a.ProjectName, true
}

func (a AssignmentWithProject) IsUrgent() bool {
	return a.ProjectPriority != nil && *a.ProjectPriority == PriorityUrgent
}

type AssignmentFilter struct {
	TeamMemberID *uuid.UUID
	ProjectID    *uuid.UUID
	// Status restricts results to one status. Empty returns every status.
	Status AssignmentStatus
}

// AssignmentUpdate carries the fields of a partial update. Nil fields are left untouched.
type AssignmentUpdate struct {
	HoursThisWeek  *decimal.Decimal
	EstimatedHours *decimal.Decimal
	Status         *AssignmentStatus
	Notes          *string
}

func (u AssignmentUpdate) IsEmpty() bool {
	return u.HoursThisWeek == nil && u.EstimatedHours == nil && u.Status == nil && u.Notes == nil
}
