// Package node defines the node domain: remote proxy servers that report
// traffic counters over an RPC surface.
package node

import "context"

// Status is the connection state of a node as tracked by the panel.
type Status string

const (
	StatusConnected  Status = "connected"
	StatusConnecting Status = "connecting"
	StatusError      Status = "error"
	StatusDisabled   Status = "disabled"
)

// Node is a remote proxy server registered with the panel.
type Node struct {
	ID       uint
	Name     string
	Address  string
	APIPort  int
	APIToken string
	Status   Status
}

// Repository provides access to registered nodes.
type Repository interface {
	// ListEnabled returns all nodes except disabled ones.
	ListEnabled(ctx context.Context) ([]Node, error)
	// ListByStatus returns all nodes with the given status.
	ListByStatus(ctx context.Context, status Status) ([]Node, error)
	// UpdateStatus transitions a node's status, recording the last error
	// message for error transitions.
	UpdateStatus(ctx context.Context, id uint, status Status, message string) error
}
