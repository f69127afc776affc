package repository

import (
	"context"
	"fmt"
	"time"

	"veilgate/internal/domain/usage"
	"veilgate/internal/shared/constants"
	"veilgate/internal/shared/logger"
)

// UsageSettlementRepository implements usage.SettlementRepository.
// Running totals and fact-table accumulation both go through the
// resilient executor; fact statements come from the dialect-selected
// upsert builder.
type UsageSettlementRepository struct {
	executor Executor
	builder  UpsertBuilder
	logger   logger.Interface
}

// NewUsageSettlementRepository creates a new settlement repository instance
func NewUsageSettlementRepository(executor Executor, builder UpsertBuilder, log logger.Interface) usage.SettlementRepository {
	return &UsageSettlementRepository{
		executor: executor,
		builder:  builder,
		logger:   log,
	}
}

// AddUserTotals adds credited deltas to user running totals and stamps
// each user's last-seen time.
func (r *UsageSettlementRepository) AddUserTotals(ctx context.Context, usages []usage.UserUsage, seenAt time.Time) error {
	if len(usages) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(usages))
	for _, u := range usages {
		rows = append(rows, map[string]any{
			"uid":       u.UID,
			"value":     u.Value,
			"online_at": seenAt,
		})
	}

	stmt := Statement{
		SQL: fmt.Sprintf(
			`UPDATE %s SET used_traffic = used_traffic + @value, online_at = @online_at WHERE id = @uid`,
			constants.TableUsers),
		Rows: rows,
	}

	if err := r.executor.Execute(ctx, stmt); err != nil {
		r.logger.Errorw("failed to add user running totals", "table", constants.TableUsers, "rows", len(rows), "error", err)
		return fmt.Errorf("failed to add user running totals: %w", err)
	}
	return nil
}

// AddAdminTotals adds per-admin rollup deltas to admin running totals.
func (r *UsageSettlementRepository) AddAdminTotals(ctx context.Context, usages map[uint]int64) error {
	if len(usages) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(usages))
	for adminID, value := range usages {
		rows = append(rows, map[string]any{
			"admin_id": adminID,
			"value":    value,
		})
	}

	stmt := Statement{
		SQL: fmt.Sprintf(
			`UPDATE %s SET used_traffic = used_traffic + @value WHERE id = @admin_id`,
			constants.TableAdmins),
		Rows: rows,
	}

	if err := r.executor.Execute(ctx, stmt); err != nil {
		r.logger.Errorw("failed to add admin running totals", "table", constants.TableAdmins, "rows", len(rows), "error", err)
		return fmt.Errorf("failed to add admin running totals: %w", err)
	}
	return nil
}

// AddNodeTotals adds per-node deltas to node running totals. Nodes with
// an all-zero delta are skipped.
func (r *UsageSettlementRepository) AddNodeTotals(ctx context.Context, totals map[uint]usage.NodeTotals) error {
	rows := make([]map[string]any, 0, len(totals))
	for nodeID, t := range totals {
		if t.IsZero() {
			continue
		}
		rows = append(rows, map[string]any{
			"node_id": nodeID,
			"up":      t.Uplink,
			"down":    t.Downlink,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	stmt := Statement{
		SQL: fmt.Sprintf(
			`UPDATE %s SET uplink = uplink + @up, downlink = downlink + @down WHERE id = @node_id`,
			constants.TableNodes),
		Rows: rows,
	}

	if err := r.executor.Execute(ctx, stmt); err != nil {
		r.logger.Errorw("failed to add node running totals", "table", constants.TableNodes, "rows", len(rows), "error", err)
		return fmt.Errorf("failed to add node running totals: %w", err)
	}
	return nil
}

// AddSystemTotals adds the cycle's fleet-wide delta to the single
// system row.
func (r *UsageSettlementRepository) AddSystemTotals(ctx context.Context, totals usage.NodeTotals) error {
	if totals.IsZero() {
		return nil
	}

	stmt := Statement{
		SQL: fmt.Sprintf(
			`UPDATE %s SET uplink = uplink + @up, downlink = downlink + @down`,
			constants.TableSystemStats),
		Rows: []map[string]any{{
			"up":   totals.Uplink,
			"down": totals.Downlink,
		}},
	}

	if err := r.executor.Execute(ctx, stmt); err != nil {
		r.logger.Errorw("failed to add system running totals", "table", constants.TableSystemStats, "error", err)
		return fmt.Errorf("failed to add system running totals: %w", err)
	}
	return nil
}

// RecordUserUsage accumulates one node's raw per-user stats, scaled by
// the node's coefficient, into the hourly fact table. Stats whose
// scaled value floors to zero are skipped.
func (r *UsageSettlementRepository) RecordUserUsage(ctx context.Context, nodeID uint, stats []usage.UserStat, coefficient float64, bucket time.Time) error {
	if len(stats) == 0 {
		return nil
	}
	if coefficient <= 0 {
		coefficient = 1
	}

	deltas := make([]UserUsageDelta, 0, len(stats))
	for _, s := range stats {
		value := int64(float64(s.Value) * coefficient)
		if value <= 0 {
			continue
		}
		deltas = append(deltas, UserUsageDelta{
			UserID: s.UID,
			NodeID: nodeID,
			Bucket: bucket,
			Value:  value,
		})
	}
	if len(deltas) == 0 {
		return nil
	}

	if err := r.executor.Execute(ctx, r.builder.UserUsage(deltas)...); err != nil {
		r.logger.Errorw("failed to record user usage facts",
			"table", constants.TableNodeUserUsages,
			"node_id", nodeID,
			"rows", len(deltas),
			"error", err,
		)
		return fmt.Errorf("failed to record user usage for node %d: %w", nodeID, err)
	}
	return nil
}

// RecordNodeUsage accumulates one node's uplink/downlink totals into
// the hourly fact table.
func (r *UsageSettlementRepository) RecordNodeUsage(ctx context.Context, nodeID uint, totals usage.NodeTotals, bucket time.Time) error {
	if totals.IsZero() {
		return nil
	}

	delta := NodeUsageDelta{
		NodeID:   nodeID,
		Bucket:   bucket,
		Uplink:   totals.Uplink,
		Downlink: totals.Downlink,
	}

	if err := r.executor.Execute(ctx, r.builder.NodeUsage(delta)...); err != nil {
		r.logger.Errorw("failed to record node usage facts",
			"table", constants.TableNodeUsages,
			"node_id", nodeID,
			"error", err,
		)
		return fmt.Errorf("failed to record node usage for node %d: %w", nodeID, err)
	}
	return nil
}
