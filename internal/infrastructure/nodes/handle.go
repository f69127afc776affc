package nodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veilgate/internal/domain/node"
	sdknode "veilgate/sdk/node"
)

// statsHandle adapts the node SDK client to the domain node.Handle
// surface, translating SDK errors into domain API errors.
type statsHandle struct {
	client *sdknode.Client
}

func newStatsHandle(n node.Node) node.Handle {
	baseURL := fmt.Sprintf("http://%s:%d", n.Address, n.APIPort)
	return &statsHandle{
		client: sdknode.NewClient(baseURL, n.APIToken),
	}
}

func (h *statsHandle) GetStats(ctx context.Context, category node.StatCategory, reset bool, timeout time.Duration) ([]node.Stat, error) {
	resp, err := h.client.GetStats(ctx, sdkCategory(category), reset, timeout)
	if err != nil {
		return nil, translateErr(err)
	}

	stats := make([]node.Stat, 0, len(resp.Stats))
	for _, s := range resp.Stats {
		stats = append(stats, node.Stat{
			Name:  s.Name,
			Value: s.Value,
			Type:  s.Type,
		})
	}
	return stats, nil
}

func (h *statsHandle) GetExtra(ctx context.Context) (*node.ExtraInfo, error) {
	extra, err := h.client.GetExtra(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return &node.ExtraInfo{UsageCoefficient: extra.UsageCoefficient}, nil
}

func sdkCategory(category node.StatCategory) sdknode.StatCategory {
	if category == node.CategoryOutbounds {
		return sdknode.CategoryOutbounds
	}
	return sdknode.CategoryUserStats
}

func translateErr(err error) error {
	var apiErr *sdknode.APIError
	if errors.As(err, &apiErr) {
		return &node.APIError{Status: apiErr.Status, Detail: apiErr.Detail}
	}
	return err
}
