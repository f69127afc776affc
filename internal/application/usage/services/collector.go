// Package services holds the usage-domain application services.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"veilgate/internal/domain/node"
	"veilgate/internal/domain/usage"
	"veilgate/internal/shared/logger"
)

const (
	userStatsTimeout     = 30 * time.Second
	outboundStatsTimeout = 10 * time.Second
)

// StatsCollector pulls traffic counters off node APIs and normalizes
// them into domain stats. Collection is fail-soft: a node that errors
// out contributes nothing instead of failing the cycle.
type StatsCollector struct {
	logger logger.Interface
}

// NewStatsCollector creates a new stats collector instance
func NewStatsCollector(log logger.Interface) *StatsCollector {
	return &StatsCollector{logger: log}
}

// CollectUserStats fetches and resets per-user counters from one node.
// Stat names are "<uid>" or "<uid>.<suffix>"; values for the same uid
// are summed across suffixes. Returns nil when the node is unreachable.
func (c *StatsCollector) CollectUserStats(ctx context.Context, n node.HealthyNode) []usage.UserStat {
	stats, err := n.Handle.GetStats(ctx, node.CategoryUserStats, true, userStatsTimeout)
	if err != nil {
		c.logNodeError(n.ID, "user stats", err)
		return nil
	}

	totals := make(map[uint]int64)
	order := make([]uint, 0, len(stats))
	for _, s := range stats {
		if s.Value == 0 {
			continue
		}

		name, _, _ := strings.Cut(s.Name, ".")
		uid, err := strconv.ParseUint(name, 10, 32)
		if err != nil {
			c.logger.Warnw("skipping stat with malformed user id",
				"node_id", n.ID,
				"stat", s.Name,
			)
			continue
		}

		if _, seen := totals[uint(uid)]; !seen {
			order = append(order, uint(uid))
		}
		totals[uint(uid)] += s.Value
	}

	result := make([]usage.UserStat, 0, len(order))
	for _, uid := range order {
		result = append(result, usage.UserStat{UID: uid, Value: totals[uid]})
	}
	return result
}

// CollectOutboundStats fetches and resets outbound link counters from
// one node. Returns nil when the node is unreachable.
func (c *StatsCollector) CollectOutboundStats(ctx context.Context, n node.HealthyNode) []usage.LinkStat {
	stats, err := n.Handle.GetStats(ctx, node.CategoryOutbounds, true, outboundStatsTimeout)
	if err != nil {
		c.logNodeError(n.ID, "outbound stats", err)
		return nil
	}

	links := make([]usage.LinkStat, 0, len(stats))
	for _, s := range stats {
		if s.Value == 0 {
			continue
		}
		link := usage.LinkStat{}
		if s.Type == "uplink" {
			link.Up = s.Value
		} else {
			link.Down = s.Value
		}
		links = append(links, link)
	}
	return links
}

func (c *StatsCollector) logNodeError(nodeID uint, what string, err error) {
	var apiErr *node.APIError
	if errors.As(err, &apiErr) {
		c.logger.Warnw("node rejected "+what+" request",
			"node_id", nodeID,
			"status", apiErr.Status,
			"detail", apiErr.Detail,
		)
		return
	}
	c.logger.Warnw("failed to collect "+what,
		"node_id", nodeID,
		"error", err,
	)
}
