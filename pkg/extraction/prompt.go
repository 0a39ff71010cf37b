package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

const systemPrompt = `You are a traffic manager for a creative agency, reading meeting transcripts.

Extract structured project, assignment, capacity and deadline data from conversational notes.

Rules:
- Only extract what is stated or strongly implied.
- Give every item a confidence between 0 and 1:
  0.9-1.0 explicitly stated, 0.7-0.9 strongly implied, 0.5-0.7 reasonably inferred,
  0.3-0.5 weakly inferred, below 0.3 uncertain and needing review.
- Mark ambiguous assignments as "inferred" with a lower confidence.
- Every "context" field must be an exact quote from the transcript.

Return ONLY a JSON object of this shape:

{
  "meeting_metadata": {"meeting_type": "wip" | "planning" | "client-debrief", "attendees": ["names"]},
  "projects": [{
    "name": "string", "client": "string or null", "status": "briefing" | "active" | "on-hold",
    "phase": "string or null", "next_milestone": "string or null",
    "next_milestone_timeframe": "string or null", "context": "quote", "confidence": 0.0
  }],
  "assignments": [{
    "person_name": "string", "project_name": "string", "role_inferred": "string or null",
    "assignment_type": "explicit" | "implicit" | "inferred",
    "workload_signal": "light" | "medium" | "heavy" | "overloaded" | null,
    "context": "quote", "confidence": 0.0
  }],
  "capacity_signals": [{
    "person_name": "string", "signal_type": "overallocated" | "available" | "blocked" | "time-constraint",
    "description": "string", "timeframe": "string or null", "context": "quote", "confidence": 0.0
  }],
  "deadlines": [{
    "project_name": "string", "milestone": "string", "deadline_text": "string",
    "deadline_date_inferred": "YYYY-MM-DD or null", "confidence": 0.0
  }],
  "overall_confidence": 0.0,
  "extraction_notes": "string or null"
}`

func userPrompt(text string, meetingDate time.Time, meetingType models.MeetingType) string {
	date := "Not specified"
	if !meetingDate.IsZero() {
		date = meetingDate.Format(time.DateOnly)
	}

	return fmt.Sprintf(`Analyze this meeting transcript and extract all structured information.

Meeting Date: %s
Meeting Type: %s

Transcript:
"""
%s
"""

Extract every project, every assignment, capacity signals, deadlines and your overall confidence.
Return ONLY valid JSON. Context quotes MUST be exact excerpts from the transcript.`, date, meetingType, text)
}

const recommendSystemPrompt = `You are a traffic manager for a creative agency, staffing projects.

Recommend 3 to 5 team members for the project from the candidates given, weighing role fit,
available hours this week and how many projects each person already carries. Never recommend
anyone who is not in the candidate list and use their names exactly as given.

Return ONLY a JSON object of this shape:

{
  "recommendations": [{
    "team_member_name": "exact candidate name",
    "suggested_role": "lead" | "producer" | "strategy" | "creative" | "support",
    "suggested_hours": 0,
    "match_reason": "string",
    "confidence": 0.0,
    "priority": "primary" | "secondary" | "backup"
  }],
  "team_composition_notes": "string",
  "warnings": ["string"]
}`

func recommendPrompt(project models.Project, candidates []models.StaffingCandidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Client: %s\n", valueOr(project.Client, "Not specified"))
	fmt.Fprintf(&b, "Status: %s\n", project.Status)
	fmt.Fprintf(&b, "Phase: %s\n", valueOr(project.Phase, "Not specified"))
	fmt.Fprintf(&b, "Priority: %s\n", project.Priority)
	if project.EstimatedTotalHours.Valid {
		fmt.Fprintf(&b, "Estimated total hours: %s\n", project.EstimatedTotalHours.Decimal.String())
	}
	if project.Deadline != nil {
		fmt.Fprintf(&b, "Deadline: %s\n", project.Deadline.Format(time.DateOnly))
	}
	if project.Notes != nil {
		fmt.Fprintf(&b, "Notes: %s\n", *project.Notes)
	}

	b.WriteString("\nCandidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s (%s): %s of %s hours free this week, on %d projects\n",
			c.FullName, c.Role, c.AvailableHours.String(), c.Capacity.String(), c.ProjectCount)
	}

	b.WriteString("\nReturn ONLY valid JSON.")
	return b.String()
}

func valueOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
