package services

import (
	"sort"

	"veilgate/internal/domain/usage"
)

// AggregateUserUsage merges per-node user stats into fleet-wide usage,
// scaling each node's values by that node's coefficient. Scaled values
// are floored; a missing coefficient counts as 1.
func AggregateUserUsage(perNode map[uint][]usage.UserStat, coefficients map[uint]float64) []usage.UserUsage {
	totals := make(map[uint]int64)
	for nodeID, stats := range perNode {
		coefficient, ok := coefficients[nodeID]
		if !ok || coefficient <= 0 {
			coefficient = 1
		}
		for _, s := range stats {
			totals[s.UID] += int64(float64(s.Value) * coefficient)
		}
	}

	result := make([]usage.UserUsage, 0, len(totals))
	for uid, value := range totals {
		result = append(result, usage.UserUsage{UID: uid, Value: value})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UID < result[j].UID })
	return result
}

// AggregateAdminUsage rolls user usage up onto owning admins. Users
// with no owner are skipped.
func AggregateAdminUsage(usages []usage.UserUsage, owners map[uint]uint) map[uint]int64 {
	totals := make(map[uint]int64)
	for _, u := range usages {
		adminID, ok := owners[u.UID]
		if !ok {
			continue
		}
		totals[adminID] += u.Value
	}
	return totals
}

// SumLinkStats collapses outbound link stats into a single node total.
// Coefficients never apply to node totals.
func SumLinkStats(links []usage.LinkStat) usage.NodeTotals {
	var totals usage.NodeTotals
	for _, l := range links {
		totals.Uplink += l.Up
		totals.Downlink += l.Down
	}
	return totals
}
