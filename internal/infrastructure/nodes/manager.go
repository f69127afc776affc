// Package nodes maintains live API handles for registered proxy nodes.
package nodes

import (
	"context"
	"fmt"
	"sync"

	"veilgate/internal/domain/node"
	"veilgate/internal/shared/logger"
)

// Manager is the healthy-node registry: it pairs node records from the
// repository with cached API handles. Handles are rebuilt when a node's
// address or token changes.
type Manager struct {
	repo   node.Repository
	logger logger.Interface

	mu      sync.Mutex
	handles map[uint]*cachedHandle
}

type cachedHandle struct {
	address string
	port    int
	token   string
	handle  node.Handle
}

// NewManager creates a new node manager instance
func NewManager(repo node.Repository, log logger.Interface) *Manager {
	return &Manager{
		repo:    repo,
		logger:  log,
		handles: make(map[uint]*cachedHandle),
	}
}

// HealthyNodes returns (id, handle) pairs for all currently connected
// nodes.
func (m *Manager) HealthyNodes(ctx context.Context) ([]node.HealthyNode, error) {
	records, err := m.repo.ListByStatus(ctx, node.StatusConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to load healthy nodes: %w", err)
	}

	healthy := make([]node.HealthyNode, 0, len(records))
	for _, n := range records {
		healthy = append(healthy, node.HealthyNode{
			ID:     n.ID,
			Handle: m.handleFor(n),
		})
	}
	return healthy, nil
}

// EnabledNodes returns every non-disabled node with a handle, for the
// health checker.
func (m *Manager) EnabledNodes(ctx context.Context) ([]node.ManagedNode, error) {
	records, err := m.repo.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled nodes: %w", err)
	}

	managed := make([]node.ManagedNode, 0, len(records))
	for _, n := range records {
		managed = append(managed, node.ManagedNode{
			Node:   n,
			Handle: m.handleFor(n),
		})
	}
	return managed, nil
}

func (m *Manager) handleFor(n node.Node) node.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	cached, ok := m.handles[n.ID]
	if ok && cached.address == n.Address && cached.port == n.APIPort && cached.token == n.APIToken {
		return cached.handle
	}

	handle := newStatsHandle(n)
	m.handles[n.ID] = &cachedHandle{
		address: n.Address,
		port:    n.APIPort,
		token:   n.APIToken,
		handle:  handle,
	}

	if ok {
		m.logger.Infow("rebuilt node api handle", "node_id", n.ID, "address", n.Address)
	}
	return handle
}
