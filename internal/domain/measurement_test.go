package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(ts string, vals map[string]float64) Measurement {
	m := Measurement{TimeStr: ts, Values: vals}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		m.Datetime = t
	}
	if m.Values == nil {
		m.Values = map[string]float64{}
	}
	return m
}

func TestMeasurement_Valid(t *testing.T) {
	tests := []struct {
		name  string
		m     Measurement
		valid bool
	}{
		{"populated row", row("2024-01-15T20:04:41Z", map[string]float64{"wse": 155.4}), true},
		{"no_data time slot", Measurement{TimeStr: NoDataTime}, false},
		{"unparsed datetime", Measurement{TimeStr: "not a time"}, false},
		{"fill value in wse", row("2024-01-15T20:04:41Z", map[string]float64{"wse": FillValue}), false},
		{"fill value in slope", row("2024-01-15T20:04:41Z", map[string]float64{"wse": 155.4, "slope": FillValue}), false},
		{"fill value in width", row("2024-01-15T20:04:41Z", map[string]float64{"width": FillValue}), false},
		{"fill value in unscreened field", row("2024-01-15T20:04:41Z", map[string]float64{"wse": 155.4, "area_total": FillValue}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.m.Valid())
		})
	}
}

func TestMeasurement_Quality(t *testing.T) {
	t.Run("precedence quality_f over reach_q over node_q", func(t *testing.T) {
		m := row("2024-01-15T20:04:41Z", map[string]float64{"quality_f": 2, "reach_q": 1, "node_q": 0})
		q, ok := m.Quality()
		require.True(t, ok)
		assert.Equal(t, 2, q)

		m = row("2024-01-15T20:04:41Z", map[string]float64{"reach_q": 1, "node_q": 0})
		q, ok = m.Quality()
		require.True(t, ok)
		assert.Equal(t, 1, q)

		m = row("2024-01-15T20:04:41Z", map[string]float64{"node_q": 3})
		q, ok = m.Quality()
		require.True(t, ok)
		assert.Equal(t, 3, q)
	})

	t.Run("absent flag", func(t *testing.T) {
		m := row("2024-01-15T20:04:41Z", map[string]float64{"wse": 155.4})
		_, ok := m.Quality()
		assert.False(t, ok)
	})
}

func TestMeasurement_JSONRoundTrip(t *testing.T) {
	m := row("2024-01-15T20:04:41Z", map[string]float64{"wse": 155.40462, "p_dist_out": 2180371.0, "node_q": 3})
	m.Meta = map[string]string{"wse_units": "m"}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	// The wire form is flat, as the statistics endpoint expects.
	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "2024-01-15T20:04:41Z", flat["time_str"])
	assert.Equal(t, 155.40462, flat["wse"])
	assert.Equal(t, "m", flat["wse_units"])

	var back Measurement
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m.TimeStr, back.TimeStr)
	assert.Equal(t, m.Datetime, back.Datetime)
	assert.Equal(t, 155.40462, back.Values["wse"])
	assert.Equal(t, "m", back.Meta["wse_units"])
}

func TestTimeBounds(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		min, max := TimeBounds(nil)
		assert.True(t, min.IsZero())
		assert.True(t, max.IsZero())
	})

	t.Run("ordering insensitive", func(t *testing.T) {
		ms := []Measurement{
			row("2024-01-26T09:38:18Z", nil),
			row("2024-01-15T20:04:41Z", nil),
			row("2024-01-20T03:12:00Z", nil),
		}
		min, max := TimeBounds(ms)
		assert.Equal(t, time.Date(2024, 1, 15, 20, 4, 41, 0, time.UTC), min)
		assert.Equal(t, time.Date(2024, 1, 26, 9, 38, 18, 0, time.UTC), max)
	})
}
