package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllAssignedNote is returned instead of asking the model when nobody is left to staff.
const AllAssignedNote = "All team members are already assigned to this project."

// StaffingCandidate is an active team member not yet on the project, with this week's headroom.
type StaffingCandidate struct {
	ID             uuid.UUID       `json:"id"`
	FullName       string          `json:"full_name"`
	Role           string          `json:"role"`
	Capacity       decimal.Decimal `json:"weekly_capacity_hours"`
	AllocatedHours decimal.Decimal `json:"allocated_hours"`
	AvailableHours decimal.Decimal `json:"available_hours"`
	ProjectCount   int             `json:"project_count"`
}

type Recommendation struct {
	TeamMemberName string  `json:"team_member_name" validate:"required"`
	SuggestedRole  string  `json:"suggested_role" validate:"required,oneof=lead producer strategy creative support"`
	SuggestedHours float64 `json:"suggested_hours" validate:"gte=0"`
	MatchReason    string  `json:"match_reason"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
	Priority       string  `json:"priority" validate:"required,oneof=primary secondary backup"`

	// Resolved against the candidate list; nil when the model named someone else.
	TeamMemberID   *uuid.UUID       `json:"team_member_id"`
	AvailableHours *decimal.Decimal `json:"available_hours"`
}

// StaffingRecommendation is the model's proposal for who should join a project.
type StaffingRecommendation struct {
	Recommendations      []Recommendation `json:"recommendations" validate:"dive"`
	TeamCompositionNotes string           `json:"team_composition_notes"`
	Warnings             []string         `json:"warnings"`
}

// Normalize replaces absent lists with empty ones.
func (r *StaffingRecommendation) Normalize() {
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
}
