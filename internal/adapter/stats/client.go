// Package stats calls the remote aggregation endpoint that reduces visible
// node cohorts to per-node statistics (median, quantiles).
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/swotvis/swot-data-service/internal/domain"
)

// Point is one aggregated result row, e.g. {"p_dist_out": 2180371.0, "wse": 155.2}.
type Point map[string]*float64

// Client posts cohort series to the statistics endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a statistics client. baseURL is the API root; the compute
// route is appended per call.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ComputeNodeSeries sends the visible cohorts' point arrays and returns a map
// from statistic name ("median", "q0.25", "q0.75", ...) to aggregated points.
// Failures come back as *domain.StatisticsError so callers can keep rendering
// without the overlay.
func (c *Client) ComputeNodeSeries(ctx context.Context, series [][]domain.Measurement) (map[string][]Point, error) {
	body, err := json.Marshal(series)
	if err != nil {
		return nil, &domain.StatisticsError{Err: fmt.Errorf("encode series: %w", err)}
	}

	u := c.baseURL + "/data/compute_node_series"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.StatisticsError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.StatisticsError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, &domain.StatisticsError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, msg)}
	}

	var out map[string][]Point
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.StatisticsError{Err: fmt.Errorf("decode statistics: %w", err)}
	}
	return out, nil
}
