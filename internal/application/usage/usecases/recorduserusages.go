// Package usecases implements the periodic usage settlement cycles.
package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"veilgate/internal/application/usage/services"
	"veilgate/internal/domain/node"
	"veilgate/internal/domain/usage"
	"veilgate/internal/shared/biztime"
	"veilgate/internal/shared/goroutine"
	"veilgate/internal/shared/logger"
)

// OnlineMarker stamps users as recently seen. Optional; settlement
// proceeds without it.
type OnlineMarker interface {
	MarkOnline(ctx context.Context, userIDs []uint, at time.Time) error
}

// RecordUserUsagesUseCase runs one user settlement cycle: collect and
// reset per-user counters from every healthy node, aggregate them with
// node coefficients, and settle user, admin, and per-node hourly totals.
type RecordUserUsagesUseCase struct {
	registry         node.Registry
	collector        *services.StatsCollector
	owners           usage.OwnerLookup
	settlement       usage.SettlementRepository
	online           OnlineMarker
	disableRecording bool
	logger           logger.Interface
}

// NewRecordUserUsagesUseCase creates a new record user usages use case instance
func NewRecordUserUsagesUseCase(
	registry node.Registry,
	collector *services.StatsCollector,
	owners usage.OwnerLookup,
	settlement usage.SettlementRepository,
	online OnlineMarker,
	disableRecording bool,
	log logger.Interface,
) *RecordUserUsagesUseCase {
	return &RecordUserUsagesUseCase{
		registry:         registry,
		collector:        collector,
		owners:           owners,
		settlement:       settlement,
		online:           online,
		disableRecording: disableRecording,
		logger:           log,
	}
}

type nodeCollection struct {
	nodeID      uint
	coefficient float64
	stats       []usage.UserStat
}

// Execute runs one settlement cycle.
func (uc *RecordUserUsagesUseCase) Execute(ctx context.Context) error {
	nodes, err := uc.registry.HealthyNodes(ctx)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		uc.logger.Debugw("no healthy nodes, skipping user usage cycle")
		return nil
	}

	collections := uc.collectAll(ctx, nodes)

	perNode := make(map[uint][]usage.UserStat)
	coefficients := make(map[uint]float64)
	for _, c := range collections {
		if len(c.stats) == 0 {
			continue
		}
		perNode[c.nodeID] = c.stats
		coefficients[c.nodeID] = c.coefficient
	}
	if len(perNode) == 0 {
		uc.logger.Debugw("no user traffic collected, skipping settlement")
		return nil
	}

	usages := services.AggregateUserUsage(perNode, coefficients)
	seenAt := biztime.NowUTC()
	bucket := biztime.TruncateToHourUTC()

	if err := uc.settlement.AddUserTotals(ctx, usages, seenAt); err != nil {
		return err
	}
	uc.markOnline(ctx, usages, seenAt)

	if err := uc.settleAdmins(ctx, usages); err != nil {
		return err
	}

	if uc.disableRecording {
		return nil
	}
	return uc.recordNodeFacts(ctx, perNode, coefficients, bucket)
}

// collectAll fans out stat collection across nodes. Each node also
// reports its usage coefficient; an unreadable coefficient falls back
// to 1 rather than dropping the node's traffic.
func (uc *RecordUserUsagesUseCase) collectAll(ctx context.Context, nodes []node.HealthyNode) []nodeCollection {
	collections := make([]nodeCollection, len(nodes))

	var wg sync.WaitGroup
	for i, n := range nodes {
		wg.Add(1)
		goroutine.SafeGo(uc.logger, "collect-user-stats", func() {
			defer wg.Done()

			coefficient := float64(1)
			if extra, err := n.Handle.GetExtra(ctx); err != nil {
				uc.logger.Warnw("failed to read node coefficient, using 1",
					"node_id", n.ID,
					"error", err,
				)
			} else if extra.UsageCoefficient > 0 {
				coefficient = extra.UsageCoefficient
			}

			collections[i] = nodeCollection{
				nodeID:      n.ID,
				coefficient: coefficient,
				stats:       uc.collector.CollectUserStats(ctx, n),
			}
		})
	}
	wg.Wait()

	return collections
}

func (uc *RecordUserUsagesUseCase) markOnline(ctx context.Context, usages []usage.UserUsage, seenAt time.Time) {
	if uc.online == nil {
		return
	}
	userIDs := make([]uint, 0, len(usages))
	for _, u := range usages {
		userIDs = append(userIDs, u.UID)
	}
	// Best effort: online markers are cosmetic and must not fail the cycle.
	_ = uc.online.MarkOnline(ctx, userIDs, seenAt)
}

func (uc *RecordUserUsagesUseCase) settleAdmins(ctx context.Context, usages []usage.UserUsage) error {
	userIDs := make([]uint, 0, len(usages))
	for _, u := range usages {
		userIDs = append(userIDs, u.UID)
	}

	owners, err := uc.owners.AdminOwners(ctx, userIDs)
	if err != nil {
		return err
	}

	adminTotals := services.AggregateAdminUsage(usages, owners)
	if len(adminTotals) == 0 {
		return nil
	}
	return uc.settlement.AddAdminTotals(ctx, adminTotals)
}

// recordNodeFacts writes per-node hourly usage facts concurrently. All
// nodes are attempted; failures are joined afterwards.
func (uc *RecordUserUsagesUseCase) recordNodeFacts(ctx context.Context, perNode map[uint][]usage.UserStat, coefficients map[uint]float64, bucket time.Time) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for nodeID, stats := range perNode {
		wg.Add(1)
		goroutine.SafeGo(uc.logger, "record-node-user-usage", func() {
			defer wg.Done()
			if err := uc.settlement.RecordUserUsage(ctx, nodeID, stats, coefficients[nodeID], bucket); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}
