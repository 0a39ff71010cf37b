package capacity

import (
	"slices"

	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
)

// SortByUtilization orders snapshots by utilization, highest first. Equal utilizations keep
// their input order.
func SortByUtilization(snapshots []models.CapacitySnapshot) {
	slices.SortStableFunc(snapshots, func(a, b models.CapacitySnapshot) int {
		return b.UtilizationPct.Cmp(a.UtilizationPct)
	})
}
