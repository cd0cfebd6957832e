package domain

import (
	"encoding/json"
	"time"
)

// TimeSeriesResponse is the payload returned by the time-series API, annotated
// client-side with the originating params and the cache stamp. A response is
// only valid data when Hits >= 1.
type TimeSeriesResponse struct {
	Status string  `json:"status,omitempty"`
	Time   float64 `json:"time,omitempty"` // upstream processing time, ms
	Hits   int     `json:"hits"`
	Results Results `json:"results"`

	// Annotations added after the fetch; not part of the wire format.
	Params   QueryParams `json:"params,omitzero"`
	CachedAt time.Time   `json:"cached_at,omitzero"`
}

// HasData reports whether the response carries at least one observation.
func (r *TimeSeriesResponse) HasData() bool {
	return r != nil && r.Hits >= 1
}

// Results holds the per-format payloads. GeoJSON is populated for
// output=geojson, CSV for output=csv.
type Results struct {
	CSV     string            `json:"csv,omitempty"`
	GeoJSON FeatureCollection `json:"geojson,omitzero"`
}

// FeatureCollection is the GeoJSON container of observation features.
type FeatureCollection struct {
	Type     string       `json:"type,omitempty"`
	Features []GeoFeature `json:"features"`
}

// GeoFeature is one GeoJSON feature. In compact mode a single feature carries
// all observations as index-aligned property arrays; otherwise each feature is
// one observation.
type GeoFeature struct {
	ID         string          `json:"id,omitempty"`
	Type       string          `json:"type,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}
