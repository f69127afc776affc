package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the node stats API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout. Per-request deadlines
// passed to GetStats take precedence through the request context.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a new node stats API client.
//
// Parameters:
//   - baseURL: The node API base URL (e.g., "http://10.0.0.5:62050")
//   - token: The node API token issued by the panel
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetStats fetches counters of the given category. When reset is true
// the node zeroes each counter once read, so returned values are deltas
// since the previous read. The timeout bounds this single request.
func (c *Client) GetStats(ctx context.Context, category StatCategory, reset bool, timeout time.Duration) (*StatsResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	query := url.Values{}
	query.Set("type", string(category))
	query.Set("reset", strconv.FormatBool(reset))
	reqURL := fmt.Sprintf("%s/v1/stats?%s", c.baseURL, query.Encode())

	var stats StatsResponse
	if err := c.doRequest(ctx, http.MethodGet, reqURL, &stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

// GetExtra fetches the node's runtime extra info, including the usage
// coefficient applied to that node's per-user traffic.
func (c *Client) GetExtra(ctx context.Context) (*ExtraInfo, error) {
	reqURL := fmt.Sprintf("%s/v1/extra", c.baseURL)

	var extra ExtraInfo
	if err := c.doRequest(ctx, http.MethodGet, reqURL, &extra); err != nil {
		return nil, fmt.Errorf("get extra: %w", err)
	}
	return &extra, nil
}

// doRequest performs an HTTP request and decodes the response.
func (c *Client) doRequest(ctx context.Context, method, reqURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Detail: string(respBody)}
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
