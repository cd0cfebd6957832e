package domain

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"
)

// Sentinel values used by the SWOT processors.
const (
	// NoDataTime marks an empty observation slot in time_str.
	NoDataTime = "no_data"
	// FillValue marks a variable the processor could not produce.
	FillValue = -999999999999.0
)

// sentinelChecked lists the variables whose fill value invalidates the whole
// row rather than just the one column.
var sentinelChecked = []string{"wse", "slope", "width"}

// qualityPrecedence resolves the quality flag when a row carries more than one
// flag field. Order is fixed: quality_f, then reach_q, then node_q.
var qualityPrecedence = []string{"quality_f", "reach_q", "node_q"}

// Measurement is one observation row: every numeric variable at one timestamp,
// keyed by abbreviation. Non-numeric columns (units strings and the like) are
// kept in Meta.
type Measurement struct {
	TimeStr  string
	Datetime time.Time
	Values   map[string]float64
	Meta     map[string]string
}

// Value returns the named variable if the row carries it.
func (m Measurement) Value(abbrev string) (float64, bool) {
	v, ok := m.Values[abbrev]
	return v, ok
}

// DistOut returns the distance to outlet, the x-axis of long-profile charts.
func (m Measurement) DistOut() float64 {
	return m.Values["p_dist_out"]
}

// Quality resolves the row's quality flag through the fixed field precedence.
// The second return is false when the row carries no flag at all.
func (m Measurement) Quality() (int, bool) {
	for _, field := range qualityPrecedence {
		if v, ok := m.Values[field]; ok {
			return int(v), true
		}
	}
	return 0, false
}

// Valid reports whether the row may be charted: the time slot is populated,
// the timestamp parsed, and no screened variable carries the fill value.
func (m Measurement) Valid() bool {
	if m.TimeStr == NoDataTime || m.Datetime.IsZero() {
		return false
	}
	for _, field := range sentinelChecked {
		if v, ok := m.Values[field]; ok && isFill(v) {
			return false
		}
	}
	return true
}

// isFill compares against the fill value with a small absolute tolerance;
// the sentinel round-trips through string formatting upstream.
func isFill(v float64) bool {
	return math.Abs(v-FillValue) < 1
}

// MarshalJSON flattens the row into a single object ({"time_str": ...,
// "datetime": ..., "wse": ...}) as the statistics endpoint and the chart
// layer expect.
func (m Measurement) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(m.Values)+len(m.Meta)+2)
	for k, v := range m.Values {
		flat[k] = v
	}
	for k, v := range m.Meta {
		flat[k] = v
	}
	flat["time_str"] = m.TimeStr
	if !m.Datetime.IsZero() {
		flat["datetime"] = m.Datetime.UTC().Format(time.RFC3339)
	}
	return json.Marshal(flat)
}

// UnmarshalJSON rebuilds a row from its flattened form, sorting numeric
// columns into Values and everything else into Meta.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*m = rowFromProperties(flat, -1)
	return nil
}

// rowFromProperties assembles a Measurement from one observation's property
// map. When idx >= 0, array-valued properties are indexed (compact mode);
// otherwise scalars are taken as-is.
func rowFromProperties(props map[string]any, idx int) Measurement {
	m := Measurement{
		Values: make(map[string]float64),
		Meta:   make(map[string]string),
	}
	for key, raw := range props {
		if idx >= 0 {
			col, ok := raw.([]any)
			if !ok || idx >= len(col) {
				continue
			}
			raw = col[idx]
		}
		switch key {
		case "time_str":
			m.TimeStr, _ = raw.(string)
		case "datetime":
			if s, ok := raw.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					m.Datetime = t
				}
			}
		default:
			if f, ok := toFloat(raw); ok {
				m.Values[key] = f
			} else if s, ok := raw.(string); ok {
				m.Meta[key] = s
			}
		}
	}
	if m.Datetime.IsZero() && m.TimeStr != "" && m.TimeStr != NoDataTime {
		if t, err := time.Parse(time.RFC3339, m.TimeStr); err == nil {
			m.Datetime = t
		}
	}
	return m
}

// toFloat accepts the numeric encodings HydroCron uses: JSON numbers and
// numeric strings ("155.40462", "-999999999999.0").
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// TimeBounds returns the min and max datetimes across rows. Zero times are
// returned for an empty slice.
func TimeBounds(ms []Measurement) (min, max time.Time) {
	for _, m := range ms {
		if m.Datetime.IsZero() {
			continue
		}
		if min.IsZero() || m.Datetime.Before(min) {
			min = m.Datetime
		}
		if max.IsZero() || m.Datetime.After(max) {
			max = m.Datetime
		}
	}
	return min, max
}

// sortByDatetime stably orders rows by timestamp ascending, preserving input
// order for ties.
func sortByDatetime(ms []Measurement) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Datetime.Before(ms[j].Datetime)
	})
}

// sortByDistOut stably orders rows by distance to outlet ascending.
func sortByDistOut(ms []Measurement) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].DistOut() < ms[j].DistOut()
	})
}
