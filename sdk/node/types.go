// Package node provides a Go SDK for the Veilgate node stats API.
package node

import "fmt"

// StatCategory selects which counter family a stats request targets.
type StatCategory string

const (
	// CategoryUserStats requests per-user traffic counters.
	CategoryUserStats StatCategory = "users"
	// CategoryOutbounds requests per-outbound uplink/downlink counters.
	CategoryOutbounds StatCategory = "outbounds"
)

// Stat is one raw counter reported by the node.
type Stat struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Type  string `json:"type"`
}

// StatsResponse is the payload of a stats request.
type StatsResponse struct {
	Stats []Stat `json:"stats"`
}

// ExtraInfo is the node's runtime extra info.
type ExtraInfo struct {
	UsageCoefficient float64 `json:"usage_coefficient"`
}

// APIError is a non-2xx response from the node API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("node api error: status=%d detail=%s", e.Status, e.Detail)
}
