package node

import (
	"context"
	"fmt"
	"time"
)

// StatCategory selects which counter family a stats request targets.
type StatCategory string

const (
	// CategoryUserStats requests per-user traffic counters. Counter
	// names have the form "<uid>.<suffix>".
	CategoryUserStats StatCategory = "users"
	// CategoryOutbounds requests per-outbound uplink/downlink counters.
	CategoryOutbounds StatCategory = "outbounds"
)

// Stat is one raw counter reported by a node.
type Stat struct {
	Name  string
	Value int64
	Type  string
}

// ExtraInfo carries node runtime extras; the usage coefficient scales
// that node's per-user deltas before they are credited.
type ExtraInfo struct {
	UsageCoefficient float64
}

// APIError is an error response from a node's API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("node api error (status %d): %s", e.Status, e.Detail)
}

// Handle is the RPC surface of a single reachable node.
type Handle interface {
	// GetStats fetches counters of the given category. When reset is
	// true the node zeroes its counters once read, so each value is a
	// delta since the previous read.
	GetStats(ctx context.Context, category StatCategory, reset bool, timeout time.Duration) ([]Stat, error)
	// GetExtra fetches the node's runtime extra info.
	GetExtra(ctx context.Context) (*ExtraInfo, error)
}

// HealthyNode pairs a node id with a live handle to it.
type HealthyNode struct {
	ID     uint
	Handle Handle
}

// ManagedNode pairs a registered node with a live handle, regardless of
// current health.
type ManagedNode struct {
	Node   Node
	Handle Handle
}

// Registry supplies handles to currently reachable nodes.
type Registry interface {
	HealthyNodes(ctx context.Context) ([]HealthyNode, error)
}
