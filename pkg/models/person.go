package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultWeeklyCapacityHours applies when a team member has no declared capacity.
const DefaultWeeklyCapacityHours = 40

const DefaultRole = "Team Member"

// Person is a team member whose weekly capacity is tracked.
type Person struct {
	ID                  uuid.UUID           `db:"id" json:"id"`
	FullName            string              `db:"full_name" json:"full_name"`
	Email               *string             `db:"email" json:"email,omitempty"`
	Role                string              `db:"role" json:"role"`
	WeeklyCapacityHours decimal.NullDecimal `db:"weekly_capacity_hours" json:"weekly_capacity_hours"`
	Active              bool                `db:"active" json:"active"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

func (Person) TableName() string {
	return "team_members"
}

// Capacity returns the declared weekly capacity, or the default when none is set.
// A declared zero is kept as zero.
func (p Person) Capacity() decimal.Decimal {
	if p.WeeklyCapacityHours.Valid {
		return p.WeeklyCapacityHours.Decimal
	}
	return decimal.NewFromInt(DefaultWeeklyCapacityHours)
}
