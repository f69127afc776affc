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

// RecordNodeUsagesUseCase runs one node settlement cycle: collect and
// reset outbound counters from every healthy node, then settle node,
// system, and per-node hourly totals. A cycle with zero traffic across
// the whole fleet writes nothing.
type RecordNodeUsagesUseCase struct {
	registry         node.Registry
	collector        *services.StatsCollector
	settlement       usage.SettlementRepository
	disableRecording bool
	logger           logger.Interface
}

// NewRecordNodeUsagesUseCase creates a new record node usages use case instance
func NewRecordNodeUsagesUseCase(
	registry node.Registry,
	collector *services.StatsCollector,
	settlement usage.SettlementRepository,
	disableRecording bool,
	log logger.Interface,
) *RecordNodeUsagesUseCase {
	return &RecordNodeUsagesUseCase{
		registry:         registry,
		collector:        collector,
		settlement:       settlement,
		disableRecording: disableRecording,
		logger:           log,
	}
}

// Execute runs one settlement cycle.
func (uc *RecordNodeUsagesUseCase) Execute(ctx context.Context) error {
	nodes, err := uc.registry.HealthyNodes(ctx)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		uc.logger.Debugw("no healthy nodes, skipping node usage cycle")
		return nil
	}

	perNode := uc.collectAll(ctx, nodes)

	var system usage.NodeTotals
	for _, totals := range perNode {
		system.Uplink += totals.Uplink
		system.Downlink += totals.Downlink
	}
	if system.IsZero() {
		uc.logger.Debugw("no node traffic collected, skipping settlement")
		return nil
	}

	if err := uc.settlement.AddNodeTotals(ctx, perNode); err != nil {
		return err
	}
	if err := uc.settlement.AddSystemTotals(ctx, system); err != nil {
		return err
	}

	if uc.disableRecording {
		return nil
	}
	return uc.recordNodeFacts(ctx, perNode, biztime.TruncateToHourUTC())
}

func (uc *RecordNodeUsagesUseCase) collectAll(ctx context.Context, nodes []node.HealthyNode) map[uint]usage.NodeTotals {
	type result struct {
		nodeID uint
		totals usage.NodeTotals
	}
	results := make([]result, len(nodes))

	var wg sync.WaitGroup
	for i, n := range nodes {
		wg.Add(1)
		goroutine.SafeGo(uc.logger, "collect-outbound-stats", func() {
			defer wg.Done()
			links := uc.collector.CollectOutboundStats(ctx, n)
			results[i] = result{nodeID: n.ID, totals: services.SumLinkStats(links)}
		})
	}
	wg.Wait()

	perNode := make(map[uint]usage.NodeTotals, len(results))
	for _, r := range results {
		perNode[r.nodeID] = r.totals
	}
	return perNode
}

func (uc *RecordNodeUsagesUseCase) recordNodeFacts(ctx context.Context, perNode map[uint]usage.NodeTotals, bucket time.Time) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for nodeID, totals := range perNode {
		if totals.IsZero() {
			continue
		}
		wg.Add(1)
		goroutine.SafeGo(uc.logger, "record-node-usage", func() {
			defer wg.Done()
			if err := uc.settlement.RecordNodeUsage(ctx, nodeID, totals, bucket); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}
