package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnarResponse(props map[string]any) *TimeSeriesResponse {
	return &TimeSeriesResponse{
		Hits: len(props["time_str"].([]any)),
		Results: Results{
			GeoJSON: FeatureCollection{
				Type:     "FeatureCollection",
				Features: []GeoFeature{{Type: "Feature", Properties: props}},
			},
		},
		Params: QueryParams{Compact: true},
	}
}

func TestReshapeColumnar(t *testing.T) {
	t.Run("merges columns index-wise", func(t *testing.T) {
		props := map[string]any{
			"time_str": []any{"2024-01-15T20:04:41Z", "2024-01-26T09:38:18Z"},
			"wse":      []any{"155.40462", "154.9736"},
			"node_q":   []any{"3", "1"},
			"wse_units": []any{"m", "m"},
		}

		ms := ReshapeColumnar(props)
		require.Len(t, ms, 2)
		assert.Equal(t, 155.40462, ms[0].Values["wse"])
		assert.Equal(t, 154.9736, ms[1].Values["wse"])
		assert.Equal(t, "m", ms[0].Meta["wse_units"])
		assert.Equal(t, "2024-01-15T20:04:41Z", ms[0].TimeStr)
		assert.False(t, ms[0].Datetime.IsZero())
	})

	t.Run("drops no_data and sentinel rows", func(t *testing.T) {
		props := map[string]any{
			"time_str": []any{"2024-01-15T20:04:41Z", NoDataTime, "2024-01-26T09:38:18Z", "2024-02-02T01:00:00Z"},
			"wse":      []any{"155.40462", "-999999999999.0", "-999999999999.0", "156.1"},
		}

		ms := ReshapeColumnar(props)
		require.Len(t, ms, 2)
		assert.Equal(t, 155.40462, ms[0].Values["wse"])
		assert.Equal(t, 156.1, ms[1].Values["wse"])
		for _, m := range ms {
			assert.True(t, m.Valid())
		}
	})

	t.Run("output never exceeds input length", func(t *testing.T) {
		props := map[string]any{
			"time_str": []any{"2024-01-15T20:04:41Z", "bad", NoDataTime},
			"wse":      []any{"1.0", "2.0", "3.0"},
		}
		assert.LessOrEqual(t, len(ReshapeColumnar(props)), 3)
	})

	t.Run("missing time column", func(t *testing.T) {
		assert.Nil(t, ReshapeColumnar(map[string]any{"wse": []any{"1.0"}}))
	})
}

func TestReshapeFeatures(t *testing.T) {
	features := []GeoFeature{
		{Properties: map[string]any{"time_str": "2024-01-15T20:04:41Z", "wse": "155.4", "reach_q": "0"}},
		{Properties: map[string]any{"time_str": NoDataTime}},
		{Properties: map[string]any{"time_str": "2024-01-26T09:38:18Z", "wse": "154.9", "reach_q": "1"}},
	}

	ms := ReshapeFeatures(features)
	require.Len(t, ms, 2)
	assert.Equal(t, 155.4, ms[0].Values["wse"])
	q, ok := ms[1].Quality()
	require.True(t, ok)
	assert.Equal(t, 1, q)
}

func TestReshape(t *testing.T) {
	t.Run("no data populates nothing", func(t *testing.T) {
		resp := &TimeSeriesResponse{Hits: 0}
		assert.Nil(t, Reshape(resp))
	})

	t.Run("compact flag routes to columnar", func(t *testing.T) {
		resp := columnarResponse(map[string]any{
			"time_str": []any{"2024-01-15T20:04:41Z"},
			"wse":      []any{"155.4"},
		})
		ms := Reshape(resp)
		require.Len(t, ms, 1)
	})

	t.Run("columnar shape detected without flag", func(t *testing.T) {
		resp := columnarResponse(map[string]any{
			"time_str": []any{"2024-01-15T20:04:41Z"},
			"wse":      []any{"155.4"},
		})
		resp.Params = QueryParams{}
		ms := Reshape(resp)
		require.Len(t, ms, 1)
	})
}
