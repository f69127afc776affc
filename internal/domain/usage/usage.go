// Package usage defines the traffic settlement domain: per-cycle deltas
// collected from nodes and the repositories that settle them.
package usage

import (
	"context"
	"time"
)

// UserStat is one node's raw traffic counter for a single user.
type UserStat struct {
	UID   uint
	Value int64
}

// LinkStat is one outbound counter contribution, classified as uplink
// or downlink.
type LinkStat struct {
	Up   int64
	Down int64
}

// UserUsage is a credited per-user delta for one settlement cycle,
// summed across nodes with coefficients applied.
type UserUsage struct {
	UID   uint
	Value int64
}

// NodeTotals is a per-node (or system-wide) uplink/downlink delta.
type NodeTotals struct {
	Uplink   int64
	Downlink int64
}

// IsZero reports whether the totals carry no traffic.
func (t NodeTotals) IsZero() bool {
	return t.Uplink == 0 && t.Downlink == 0
}

// SettlementRepository applies cycle deltas to running totals and to
// the hourly fact tables. All writes are additive and retried on
// transient database contention.
type SettlementRepository interface {
	// AddUserTotals adds credited deltas to user running totals and
	// stamps each user's last-seen time.
	AddUserTotals(ctx context.Context, usages []UserUsage, seenAt time.Time) error
	// AddAdminTotals adds per-admin rollup deltas to admin running totals.
	AddAdminTotals(ctx context.Context, usages map[uint]int64) error
	// AddNodeTotals adds per-node deltas to node running totals.
	AddNodeTotals(ctx context.Context, totals map[uint]NodeTotals) error
	// AddSystemTotals adds the cycle's system-wide delta to the single
	// system row.
	AddSystemTotals(ctx context.Context, totals NodeTotals) error
	// RecordUserUsage accumulates one node's raw per-user stats, scaled
	// by the node's coefficient, into the per-user-per-node-per-hour
	// fact table.
	RecordUserUsage(ctx context.Context, nodeID uint, stats []UserStat, coefficient float64, bucket time.Time) error
	// RecordNodeUsage accumulates one node's uplink/downlink totals into
	// the per-node-per-hour fact table.
	RecordNodeUsage(ctx context.Context, nodeID uint, totals NodeTotals, bucket time.Time) error
}

// OwnerLookup resolves which admin owns each user.
type OwnerLookup interface {
	// AdminOwners returns the owning admin id for every given user id
	// that has one; users without an admin are absent from the result.
	AdminOwners(ctx context.Context, userIDs []uint) (map[uint]uint, error)
}
