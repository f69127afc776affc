// Package usecases implements node lifecycle operations.
package usecases

import (
	"context"
	"sync"
	"time"

	"veilgate/internal/domain/node"
	apperrors "veilgate/internal/shared/errors"
	"veilgate/internal/shared/goroutine"
	"veilgate/internal/shared/logger"
)

// NodeSource lists the nodes eligible for health probing.
type NodeSource interface {
	EnabledNodes(ctx context.Context) ([]node.ManagedNode, error)
}

// CheckNodeHealthUseCase probes every enabled node's API and moves its
// status between connected and error accordingly.
type CheckNodeHealthUseCase struct {
	source       NodeSource
	repo         node.Repository
	probeTimeout time.Duration
	logger       logger.Interface
}

// NewCheckNodeHealthUseCase creates a new check node health use case instance
func NewCheckNodeHealthUseCase(source NodeSource, repo node.Repository, probeTimeout time.Duration, log logger.Interface) *CheckNodeHealthUseCase {
	return &CheckNodeHealthUseCase{
		source:       source,
		repo:         repo,
		probeTimeout: probeTimeout,
		logger:       log,
	}
}

// Execute probes all enabled nodes in parallel.
func (uc *CheckNodeHealthUseCase) Execute(ctx context.Context) error {
	nodes, err := uc.source.EnabledNodes(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, n := range nodes {
		wg.Add(1)
		goroutine.SafeGo(uc.logger, "check-node-health", func() {
			defer wg.Done()
			uc.probe(ctx, n)
		})
	}
	wg.Wait()
	return nil
}

func (uc *CheckNodeHealthUseCase) probe(ctx context.Context, n node.ManagedNode) {
	probeCtx, cancel := context.WithTimeout(ctx, uc.probeTimeout)
	defer cancel()

	_, err := n.Handle.GetExtra(probeCtx)
	if err != nil {
		if n.Node.Status == node.StatusError {
			return
		}
		uc.logger.Warnw("node health probe failed",
			"node_id", n.Node.ID,
			"node", n.Node.Name,
			"error", err,
		)
		if updErr := uc.repo.UpdateStatus(ctx, n.Node.ID, node.StatusError, err.Error()); updErr != nil {
			if apperrors.IsNotFoundError(updErr) {
				// Node removed while the probe was in flight.
				return
			}
			uc.logger.Errorw("failed to mark node as errored", "node_id", n.Node.ID, "error", updErr)
		}
		return
	}

	if n.Node.Status == node.StatusConnected {
		return
	}
	if n.Node.Status == node.StatusConnecting {
		uc.logger.Infow("node connected", "node_id", n.Node.ID, "node", n.Node.Name)
	} else {
		uc.logger.Infow("node is healthy again", "node_id", n.Node.ID, "node", n.Node.Name)
	}
	if updErr := uc.repo.UpdateStatus(ctx, n.Node.ID, node.StatusConnected, ""); updErr != nil {
		uc.logger.Errorw("failed to mark node as connected", "node_id", n.Node.ID, "error", updErr)
	}
}
