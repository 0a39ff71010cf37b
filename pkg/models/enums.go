package models

type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusPaused    AssignmentStatus = "paused"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusActive, AssignmentStatusPaused, AssignmentStatusCompleted:
		return true
	}
	return false
}

// AssignmentSource records whether an assignment was entered by hand or proposed from a transcript.
type AssignmentSource string

const (
	AssignmentSourceManual AssignmentSource = "manual"
	AssignmentSourceAI     AssignmentSource = "ai"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectStatusBriefing  ProjectStatus = "briefing"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on-hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusBriefing, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type ConflictType string

const (
	ConflictTypeOverallocation   ConflictType = "overallocation"
	ConflictTypeTimelineConflict ConflictType = "timeline-conflict"
	// ConflictTypeSkillMismatch is part of the wire vocabulary but never produced.
	ConflictTypeSkillMismatch ConflictType = "skill-mismatch"
)

type MeetingType string

const (
	MeetingTypeWIP           MeetingType = "wip"
	MeetingTypePlanning      MeetingType = "planning"
	MeetingTypeClientDebrief MeetingType = "client-debrief"
)

func (m MeetingType) Valid() bool {
	switch m {
	case MeetingTypeWIP, MeetingTypePlanning, MeetingTypeClientDebrief:
		return true
	}
	return false
}
