package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Project struct {
	ID                  uuid.UUID           `db:"id" json:"id"`
	Name                string              `db:"name" json:"name"`
	Client              *string             `db:"client" json:"client,omitempty"`
	Status              ProjectStatus       `db:"status" json:"status"`
	Phase               *string             `db:"phase" json:"phase,omitempty"`
	EstimatedTotalHours decimal.NullDecimal `db:"estimated_total_hours" json:"estimated_total_hours"`
	StartDate           *time.Time          `db:"start_date" json:"start_date,omitempty"`
	Deadline            *time.Time          `db:"deadline" json:"deadline,omitempty"`
	Priority            Priority            `db:"priority" json:"priority"`
	Notes               *string             `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

type ProjectFilter struct {
	Status ProjectStatus
	// Client matches case-insensitively anywhere in the client name.
	Client string
}

// ProjectUpdate carries the fields of a partial project update. Nil fields are left untouched.
type ProjectUpdate struct {
	Name                *string
	Client              *string
	Status              *ProjectStatus
	Phase               *string
	EstimatedTotalHours *decimal.Decimal
	StartDate           *time.Time
	Deadline            *time.Time
	Priority            *Priority
	Notes               *string
}

func (u ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Client == nil && u.Status == nil && u.Phase == nil &&
		u.EstimatedTotalHours == nil && u.StartDate == nil && u.Deadline == nil &&
		u.Priority == nil && u.Notes == nil
}
