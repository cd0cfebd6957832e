package domain

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MissionEpoch is the start of SWOT science data collection. Queries default
// to the whole mission unless the caller narrows the window.
var MissionEpoch = time.Date(2022, time.December, 16, 0, 0, 0, 0, time.UTC)

// OutputFormat selects the response payload shape from the time-series API.
type OutputFormat string

const (
	OutputGeoJSON OutputFormat = "geojson"
	OutputCSV     OutputFormat = "csv"
)

// QueryParams is the canonical, immutable description of one time-series
// query. Two QueryParams are cache-equivalent when equal after excluding
// EndTime, which drifts with "now".
type QueryParams struct {
	FeatureType FeatureType  `json:"feature"`
	FeatureID   string       `json:"feature_id"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	Output      OutputFormat `json:"output"`
	Variables   []string     `json:"fields"` // sorted, deduplicated
	Compact     bool         `json:"compact"`
	Collection  string       `json:"collection_name,omitempty"`
}

// QueryOption overrides a default on a built query.
type QueryOption func(*QueryParams)

// WithTimeWindow overrides the mission-epoch-to-now default window.
func WithTimeWindow(start, end time.Time) QueryOption {
	return func(p *QueryParams) {
		p.StartTime = start
		p.EndTime = end
	}
}

// WithCompact toggles compact response mode.
func WithCompact(compact bool) QueryOption {
	return func(p *QueryParams) { p.Compact = compact }
}

// WithCollection overrides the collection derived from the feature type.
func WithCollection(name string) QueryOption {
	return func(p *QueryParams) { p.Collection = name }
}

// BuildQuery produces canonical QueryParams for a feature. Requested variables
// are filtered to those valid for the feature type and the always-include set
// is appended; an empty filtered set is ErrNoVariablesSelected. The window
// defaults to [MissionEpoch, now].
func BuildQuery(f *Feature, requested []string, output OutputFormat, opts ...QueryOption) (QueryParams, error) {
	var fields []string
	for _, abbrev := range requested {
		v, ok := LookupVariable(abbrev)
		if !ok || !v.allowedFor(f.Type) {
			continue
		}
		fields = append(fields, abbrev)
	}
	if len(fields) == 0 {
		return QueryParams{}, fmt.Errorf("%w: %s", ErrNoVariablesSelected, f.Type)
	}

	fields = append(fields, alwaysInclude[f.Type]...)
	fields = dedupeSorted(fields)

	p := QueryParams{
		FeatureType: f.Type,
		FeatureID:   f.ID,
		StartTime:   MissionEpoch,
		EndTime:     clock.Now().UTC(),
		Output:      output,
		Variables:   fields,
		Compact:     true,
		Collection:  f.Type.Collection(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p, nil
}

// Values renders the params as the API's query string parameters.
func (p QueryParams) Values() url.Values {
	v := url.Values{
		"feature":    {string(p.FeatureType)},
		"feature_id": {p.FeatureID},
		"start_time": {p.StartTime.UTC().Format(time.RFC3339)},
		"end_time":   {p.EndTime.UTC().Format(time.RFC3339)},
		"output":     {string(p.Output)},
		"fields":     {strings.Join(p.Variables, ",")},
		"compact":    {strconv.FormatBool(p.Compact)},
	}
	if p.Collection != "" {
		v.Set("collection_name", p.Collection)
	}
	return v
}

// CacheKey derives the deterministic cache key for these params against an
// endpoint. EndTime is deliberately excluded so repeated "up to now" queries
// for the same feature hit the same cache line.
func (p QueryParams) CacheKey(endpoint string) string {
	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('|')
	b.WriteString(string(p.FeatureType))
	b.WriteByte('|')
	b.WriteString(p.FeatureID)
	b.WriteByte('|')
	b.WriteString(p.StartTime.UTC().Format(time.RFC3339))
	b.WriteByte('|')
	b.WriteString(string(p.Output))
	b.WriteByte('|')
	b.WriteString(strings.Join(p.Variables, ","))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(p.Compact))
	b.WriteByte('|')
	b.WriteString(p.Collection)
	return hashKey(b.String())
}

// hashKey is a standalone FNV-1a hash over the canonical param string.
func hashKey(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s)) //nolint:errcheck // hash.Hash never errors
	return strconv.FormatUint(h.Sum64(), 16)
}

func dedupeSorted(fields []string) []string {
	sort.Strings(fields)
	out := fields[:0]
	for i, f := range fields {
		if i == 0 || f != fields[i-1] {
			out = append(out, f)
		}
	}
	return out
}
