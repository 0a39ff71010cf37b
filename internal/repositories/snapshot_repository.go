package repositories

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tom2tomtomtom/traffic-manager/pkg/capacity"
	"github.com/tom2tomtomtom/traffic-manager/pkg/database"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/tracing"
)

const capacitySnapshotsTable = "capacity_snapshots"

type snapshotRow struct {
	ID                 uuid.UUID       `db:"id"`
	TeamMemberID       uuid.UUID       `db:"team_member_id"`
	WeekStartDate      time.Time       `db:"week_start_date"`
	TotalCapacityHours decimal.Decimal `db:"total_capacity_hours"`
	AllocatedHours     decimal.Decimal `db:"allocated_hours"`
	AvailableHours     decimal.Decimal `db:"available_hours"`
	UtilizationPct     decimal.Decimal `db:"utilization_pct"`
	Overallocated      bool            `db:"overallocated"`
	CalculatedAt       time.Time       `db:"calculated_at"`
}

var snapshotStruct = database.NewStruct(new(snapshotRow))

// SnapshotRepository stores one capacity snapshot per team member and week.
type SnapshotRepository struct {
	*Repository
}

func NewSnapshotRepository(db database.DB, logger ectologger.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		Repository: NewRepository(db, logger),
	}
}

// Upsert inserts the snapshot for (team member, week) or overwrites the existing one.
// The stored ID and calculation time are written back onto snapshot.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *models.CapacitySnapshot) error {
	ctx, span := tracing.StartSpan(ctx, "SnapshotRepository.Upsert")
	defer span.End()

	week := capacity.WeekStart(snapshot.WeekStartDate).Format(capacity.DateLayout)
	fields := map[string]any{
		"team_member_id":  snapshot.TeamMemberID,
		"week_start_date": week,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(capacitySnapshotsTable).
		Cols("id", "team_member_id", "week_start_date", "total_capacity_hours", "allocated_hours",
			"available_hours", "utilization_pct", "overallocated", "calculated_at").
		Values(uuid.New(), snapshot.TeamMemberID, week, snapshot.TotalCapacityHours, snapshot.AllocatedHours,
			snapshot.AvailableHours, snapshot.UtilizationPct, snapshot.Overallocated, database.Now())
	ub := ib.OnConflict("team_member_id", "week_start_date")
	ub.Set(
		ub.Assign("total_capacity_hours", database.Excluded("total_capacity_hours")),
		ub.Assign("allocated_hours", database.Excluded("allocated_hours")),
		ub.Assign("available_hours", database.Excluded("available_hours")),
		ub.Assign("utilization_pct", database.Excluded("utilization_pct")),
		ub.Assign("overallocated", database.Excluded("overallocated")),
		ub.Assign("calculated_at", database.Excluded("calculated_at")),
	)
	query, args := ib.Build()

	ctx, tx, err := r.DB().GetTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return r.fail(ctx, err, fields, "failed to upsert capacity snapshot")
	}

	sb := snapshotStruct.SelectFrom(capacitySnapshotsTable)
	sb.Where(sb.Equal("team_member_id", snapshot.TeamMemberID), sb.Equal("week_start_date", week))
	query, args = sb.Build()

	var row snapshotRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return r.fail(ctx, err, fields, "failed to read back capacity snapshot")
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	snapshot.ID = row.ID
	snapshot.CalculatedAt = row.CalculatedAt.UTC()

	r.logger.WithContext(ctx).WithFields(fields).Debugf("Upserted %s", capacitySnapshotsTable)
	return nil
}
