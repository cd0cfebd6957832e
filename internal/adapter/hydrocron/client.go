// Package hydrocron queries the PO.DAAC HydroCron time-series API and serves
// repeated queries from the local response cache.
package hydrocron

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/swotvis/swot-data-service/internal/adapter/cache"
	"github.com/swotvis/swot-data-service/internal/domain"
	"github.com/swotvis/swot-data-service/internal/observability"
)

// Client fetches time-series responses, classifies outcomes, and writes
// successful payloads through to the cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Store
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a HydroCron client. baseURL points at the timeseries
// endpoint, e.g. "https://soto.podaac.earthdatacloud.nasa.gov/hydrocron/v1/timeseries".
func NewClient(baseURL string, timeout time.Duration, store *cache.Store, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch resolves a query, from cache when possible. Outcomes:
//
//	transport failure           -> *domain.QueryError (network)
//	HTTP status >= 500          -> *domain.QueryError (server)
//	HTTP status 400             -> domain.ErrNoData
//	hits < 1 or missing         -> domain.ErrNoData
//	otherwise                   -> response annotated with params and cache stamp
//
// Successful payloads are written through to the cache before returning; a
// cache write failure is logged and counted but does not fail the fetch.
func (c *Client) Fetch(ctx context.Context, params domain.QueryParams) (*domain.TimeSeriesResponse, error) {
	key := params.CacheKey(c.baseURL)

	if payload, cachedAt, ok := c.cache.Get(key); ok {
		resp, err := decodeResponse(payload)
		if err != nil {
			c.logger.Warn("malformed cached response, refetching", "key", key, "error", err)
		} else {
			c.metrics.CacheLookups.WithLabelValues("hit").Inc()
			resp.Params = params
			resp.CachedAt = cachedAt
			return resp, nil
		}
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	resp, err := c.fetchRemote(ctx, params)
	if err != nil {
		return nil, err
	}

	resp.Params = params
	resp.CachedAt = domain.Clock().Now().UTC()

	if payload, err := json.Marshal(resp); err == nil {
		if err := c.cache.Put(key, payload); err != nil {
			c.logger.Error("cache write failed", "key", key, "error", err)
			c.metrics.CacheWriteErrors.Inc()
		}
	}
	return resp, nil
}

func (c *Client) fetchRemote(ctx context.Context, params domain.QueryParams) (*domain.TimeSeriesResponse, error) {
	u := c.baseURL + "?" + params.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("network_error").Inc()
		return nil, &domain.QueryError{Kind: domain.QueryErrorNetwork, Err: err}
	}
	defer httpResp.Body.Close()
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case httpResp.StatusCode >= http.StatusInternalServerError:
		c.metrics.FetchRequests.WithLabelValues("server_error").Inc()
		return nil, &domain.QueryError{Kind: domain.QueryErrorServer, Status: httpResp.StatusCode}
	case httpResp.StatusCode == http.StatusBadRequest:
		// HydroCron answers 400 for queries that match nothing; a normal
		// empty-result outcome, not a fault.
		c.metrics.FetchRequests.WithLabelValues("no_data").Inc()
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNoData, params.FeatureType, params.FeatureID)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("network_error").Inc()
		return nil, &domain.QueryError{Kind: domain.QueryErrorNetwork, Err: err}
	}

	resp, err := decodeResponse(body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("decode time-series response: %w", err)
	}
	if !resp.HasData() {
		c.metrics.FetchRequests.WithLabelValues("no_data").Inc()
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNoData, params.FeatureType, params.FeatureID)
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	return resp, nil
}

func decodeResponse(payload []byte) (*domain.TimeSeriesResponse, error) {
	var resp domain.TimeSeriesResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
