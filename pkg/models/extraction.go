package models

// ExtractionResult is the structured reading of a meeting transcript. Every extracted
// fact carries a confidence in [0,1] and, where the model can quote it, the verbatim context.
type ExtractionResult struct {
	MeetingMetadata   map[string]any        `json:"meeting_metadata"`
	Projects          []ExtractedProject    `json:"projects" validate:"dive"`
	Assignments       []ExtractedAssignment `json:"assignments" validate:"dive"`
	CapacitySignals   []CapacitySignal      `json:"capacity_signals" validate:"dive"`
	Deadlines         []ExtractedDeadline   `json:"deadlines" validate:"dive"`
	OverallConfidence float64               `json:"overall_confidence" validate:"gte=0,lte=1"`
	ExtractionNotes   *string               `json:"extraction_notes"`
}

type ExtractedProject struct {
	Name                   string  `json:"name" validate:"required"`
	Client                 *string `json:"client"`
	Status                 string  `json:"status" validate:"omitempty,oneof=briefing active on-hold"`
	Phase                  *string `json:"phase"`
	NextMilestone          *string `json:"next_milestone"`
	NextMilestoneTimeframe *string `json:"next_milestone_timeframe"`
	Context                string  `json:"context" validate:"required"`
	Confidence             float64 `json:"confidence" validate:"gte=0,lte=1"`
}

type ExtractedAssignment struct {
	PersonName     string  `json:"person_name" validate:"required"`
	ProjectName    string  `json:"project_name" validate:"required"`
	RoleInferred   *string `json:"role_inferred"`
	AssignmentType string  `json:"assignment_type" validate:"required,oneof=explicit implicit inferred"`
	WorkloadSignal *string `json:"workload_signal" validate:"omitempty,oneof=light medium heavy overloaded"`
	Context        string  `json:"context" validate:"required"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
}

type CapacitySignal struct {
	PersonName  string  `json:"person_name" validate:"required"`
	SignalType  string  `json:"signal_type" validate:"required,oneof=overallocated available blocked time-constraint"`
	Description string  `json:"description" validate:"required"`
	Timeframe   *string `json:"timeframe"`
	Context     string  `json:"context" validate:"required"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=1"`
}

type ExtractedDeadline struct {
	ProjectName          string  `json:"project_name" validate:"required"`
	Milestone            string  `json:"milestone" validate:"required"`
	DeadlineText         string  `json:"deadline_text" validate:"required"`
	DeadlineDateInferred *string `json:"deadline_date_inferred" validate:"omitempty,datetime=2006-01-02"`
	Confidence           float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// Normalize fills the defaults the model is allowed to omit.
func (r *ExtractionResult) Normalize() {
	if r.MeetingMetadata == nil {
		r.MeetingMetadata = map[string]any{}
	}
	for i := range r.Projects {
		if r.Projects[i].Status == "" {
			r.Projects[i].Status = string(ProjectStatusActive)
		}
	}
	if r.Projects == nil {
		r.Projects = []ExtractedProject{}
	}
	if r.Assignments == nil {
		r.Assignments = []ExtractedAssignment{}
	}
	if r.CapacitySignals == nil {
		r.CapacitySignals = []CapacitySignal{}
	}
	if r.Deadlines == nil {
		r.Deadlines = []ExtractedDeadline{}
	}
}
