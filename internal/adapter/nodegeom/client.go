// Package nodegeom queries the upstream feature service for the nodes that
// compose a reach's long profile.
package nodegeom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/swotvis/swot-data-service/internal/domain"
)

// Client queries an ArcGIS-style feature service for SWORD node geometries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a node-geometry client. baseURL is the feature layer
// query endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NodesForReach returns the normalized node features belonging to a reach.
func (c *Client) NodesForReach(ctx context.Context, reachID string) ([]*domain.Feature, error) {
	params := url.Values{
		"where":     {fmt.Sprintf("reach_id = '%s'", reachID)},
		"outFields": {"*"},
		"f":         {"geojson"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query node geometries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("node geometry service: status %d: %s", resp.StatusCode, msg)
	}

	var payload struct {
		Features []map[string]any `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode node geometries: %w", err)
	}

	nodes := make([]*domain.Feature, 0, len(payload.Features))
	for _, raw := range payload.Features {
		f, err := domain.NormalizeFeature(raw)
		if err != nil {
			c.logger.Warn("skipping unrecognizable node feature", "reach_id", reachID, "error", err)
			continue
		}
		nodes = append(nodes, f)
	}
	return nodes, nil
}
