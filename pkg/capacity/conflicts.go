package capacity

import (
	"fmt"

	"github.com/Gobusters/ectolinq"
	"github.com/shopspring/decimal"

	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

var (
	highSeverityOverage   = decimal.NewFromInt(10)
	mediumSeverityOverage = decimal.NewFromInt(5)
)

// ClassifyOverage maps hours over capacity to a severity. Both thresholds are exclusive.
func ClassifyOverage(overage decimal.Decimal) models.Severity {
	switch {
	case overage.GreaterThan(highSeverityOverage):
		return models.SeverityHigh
	case overage.GreaterThan(mediumSeverityOverage):
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// DetectPersonConflicts returns the conflicts of one team member given their snapshot and
// active assignments. Nothing is reported unless the snapshot is overallocated.
func DetectPersonConflicts(snapshot models.CapacitySnapshot, assignments []models.AssignmentWithProject) []models.CapacityConflict {
	if !snapshot.Overallocated {
		return nil
	}

	overage := snapshot.AllocatedHours.Sub(snapshot.TotalCapacityHours)
	conflicts := []models.CapacityConflict{{
		Type:                models.ConflictTypeOverallocation,
		TeamMemberID:        snapshot.TeamMemberID,
		TeamMemberName:      snapshot.FullName,
		AffectedProjects:    projectNames(assignments),
		Severity:            ClassifyOverage(overage),
		Description:         fmt.Sprintf("%s is %sh overallocated this week", snapshot.FullName, overage.RoundBank(0).String()),
		SuggestedResolution: suggestReduction(assignments),
	}}

	urgent := ectolinq.Filter(assignments, models.AssignmentWithProject.IsUrgent)
	if len(urgent) > 1 {
		conflicts = append(conflicts, models.CapacityConflict{
			Type:             models.ConflictTypeTimelineConflict,
			TeamMemberID:     snapshot.TeamMemberID,
			TeamMemberName:   snapshot.FullName,
			AffectedProjects: projectNames(urgent),
			Severity:         models.SeverityHigh,
			Description:      fmt.Sprintf("%s has %d urgent projects with overlapping deadlines", snapshot.FullName, len(urgent)),
		})
	}

	return conflicts
}

func projectNames(assignments []models.AssignmentWithProject) []string {
	names := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if name, ok := a.ResolvedProjectName(); ok {
			names = append(names, name)
		}
	}
	return names
}

// suggestReduction points at the largest assignment. Ties go to the first one seen.
func suggestReduction(assignments []models.AssignmentWithProject) *string {
	if len(assignments) == 0 {
		return nil
	}
	largest := assignments[0]
	for _, a := range assignments[1:] {
		if a.HoursThisWeek.GreaterThan(largest.HoursThisWeek) {
			largest = a
		}
	}
	name, ok := largest.ResolvedProjectName()
	if !ok {
		return nil
	}
	suggestion := "Reduce hours on: " + name
	return &suggestion
}
