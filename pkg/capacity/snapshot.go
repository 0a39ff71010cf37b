package capacity

import (
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/shopspring/decimal"

	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// AllocatedHours sums the weekly hours of the active assignments.
func AllocatedHours(assignments []models.Assignment) decimal.Decimal {
	total := decimal.Zero
	for _, a := range ectolinq.Filter(assignments, models.Assignment.IsActive) {
		total = total.Add(a.HoursThisWeek)
	}
	return total
}

// Utilization returns allocated as a percentage of capacity. A zero capacity yields zero.
func Utilization(allocated, capacity decimal.Decimal) decimal.Decimal {
	if !capacity.IsPositive() {
		return decimal.Zero
	}
	return allocated.Div(capacity).Mul(hundred)
}

// ComputeSnapshot derives the capacity snapshot of person for the week starting at weekStart.
// Only active assignments count towards the allocation. The result carries no ID; that is
// assigned when it is stored.
func ComputeSnapshot(person models.Person, assignments []models.Assignment, weekStart time.Time, now time.Time) models.CapacitySnapshot {
	capacityHours := person.Capacity()
	allocated := AllocatedHours(assignments)

	return models.CapacitySnapshot{
		TeamMemberID:       person.ID,
		FullName:           person.FullName,
		Role:               person.Role,
		WeekStartDate:      WeekStart(weekStart),
		TotalCapacityHours: capacityHours,
		AllocatedHours:     allocated,
		AvailableHours:     capacityHours.Sub(allocated),
		UtilizationPct:     Utilization(allocated, capacityHours),
		Overallocated:      allocated.GreaterThan(capacityHours),
		CalculatedAt:       now.UTC(),
	}
}
