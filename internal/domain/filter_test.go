package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qualityRow(at time.Time, q int) Measurement {
	return Measurement{
		TimeStr:  at.UTC().Format(time.RFC3339),
		Datetime: at,
		Values:   map[string]float64{"wse": 100, "reach_q": float64(q)},
	}
}

func reachSnapshot(base time.Time, flags []int) []Dataset {
	ms := make([]Measurement, len(flags))
	for i, q := range flags {
		ms[i] = qualityRow(base.Add(time.Duration(i)*24*time.Hour), q)
	}
	return []Dataset{NewReachDataset("Tanana River | 72390300011", "wse", ms)}
}

func TestFilterQuality(t *testing.T) {
	base := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)

	t.Run("keeps only accepted flags", func(t *testing.T) {
		snapshot := reachSnapshot(base, []int{0, 1, 2, 3, 0})

		filtered := FilterQuality(snapshot, DefaultAcceptedQuality())
		require.Len(t, filtered, 1)
		require.Len(t, filtered[0].Data, 3)
		assert.Equal(t, base, filtered[0].Data[0].Datetime)
		assert.Equal(t, base.Add(24*time.Hour), filtered[0].Data[1].Datetime)
		assert.Equal(t, base.Add(4*24*time.Hour), filtered[0].Data[2].Datetime)
	})

	t.Run("recomputes per-point styles", func(t *testing.T) {
		snapshot := reachSnapshot(base, []int{0, 1})

		filtered := FilterQuality(snapshot, DefaultAcceptedQuality())
		require.Len(t, filtered[0].PointStyles, 2)
		assert.Equal(t, "circle", filtered[0].PointStyles[0])
		assert.Equal(t, "triangle", filtered[0].PointStyles[1])
		assert.Len(t, filtered[0].PointBorderColors, 2)
	})

	t.Run("idempotent over the snapshot", func(t *testing.T) {
		snapshot := reachSnapshot(base, []int{0, 1, 2, 3, 0})

		once := FilterQuality(snapshot, DefaultAcceptedQuality())
		twice := FilterQuality(snapshot, DefaultAcceptedQuality())
		assert.Equal(t, once, twice)
	})

	t.Run("does not mutate the snapshot", func(t *testing.T) {
		snapshot := reachSnapshot(base, []int{0, 1, 2, 3, 0})

		_ = FilterQuality(snapshot, DefaultAcceptedQuality())
		assert.Len(t, snapshot[0].Data, 5)
		assert.Nil(t, snapshot[0].PointStyles)
	})

	t.Run("computed overlays pass through", func(t *testing.T) {
		overlay := Dataset{Label: "mean", SeriesType: SeriesComputed, Data: []Measurement{qualityRow(base, 3)}}

		filtered := FilterQuality([]Dataset{overlay}, DefaultAcceptedQuality())
		require.Len(t, filtered, 1)
		assert.Len(t, filtered[0].Data, 1)
	})

	t.Run("rows without a flag survive", func(t *testing.T) {
		ms := []Measurement{{TimeStr: "2024-01-15T20:00:00Z", Datetime: base, Values: map[string]float64{"wse": 100}}}
		snapshot := []Dataset{NewReachDataset("r", "wse", ms)}

		filtered := FilterQuality(snapshot, DefaultAcceptedQuality())
		assert.Len(t, filtered[0].Data, 1)
	})
}

func TestFilterTimeRange(t *testing.T) {
	base := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)

	t.Run("reach series filtered point-wise with bounds recomputed", func(t *testing.T) {
		snapshot := reachSnapshot(base, []int{0, 0, 0, 0, 0})

		filtered := FilterTimeRange(snapshot, base.Add(24*time.Hour), base.Add(3*24*time.Hour), time.Minute)
		require.Len(t, filtered[0].Data, 3)
		assert.Equal(t, base.Add(24*time.Hour), filtered[0].MinDateTime)
		assert.Equal(t, base.Add(3*24*time.Hour), filtered[0].MaxDateTime)
	})

	t.Run("window buffered by tolerance", func(t *testing.T) {
		snapshot := reachSnapshot(base, []int{0, 0})

		// Window starts 30s after the first point; the 1-minute buffer keeps it.
		filtered := FilterTimeRange(snapshot, base.Add(30*time.Second), base.Add(48*time.Hour), time.Minute)
		assert.Len(t, filtered[0].Data, 2)
	})

	t.Run("node cohorts hidden whole, never partially filtered", func(t *testing.T) {
		in := Cohort{Time: base, Measurements: []Measurement{nodeRow(base, 10), nodeRow(base.Add(30*time.Second), 20)}}
		out := Cohort{Time: base.Add(48 * time.Hour), Measurements: []Measurement{nodeRow(base.Add(48*time.Hour), 10)}}
		snapshot := []Dataset{
			NewCohortDataset(in, "wse", "rgb(68,1,84)"),
			NewCohortDataset(out, "wse", "rgb(253,231,37)"),
		}

		filtered := FilterTimeRange(snapshot, base.Add(-time.Hour), base.Add(time.Hour), time.Minute)
		assert.False(t, filtered[0].Hidden)
		assert.Len(t, filtered[0].Data, 2, "visible cohorts keep every point")
		assert.True(t, filtered[1].Hidden)
		assert.Len(t, filtered[1].Data, 1, "hidden cohorts keep their points too")
	})

	t.Run("widening back restores all originally-valid points", func(t *testing.T) {
		snapshot := reachSnapshot(base, []int{0, 0, 0, 0, 0})

		narrow := FilterTimeRange(snapshot, base.Add(24*time.Hour), base.Add(2*24*time.Hour), time.Minute)
		require.Less(t, len(narrow[0].Data), 5)

		wide := FilterTimeRange(snapshot, time.Time{}, time.Time{}, time.Minute)
		assert.Len(t, wide[0].Data, 5)
	})

	t.Run("does not mutate the snapshot", func(t *testing.T) {
		cohort := Cohort{Time: base, Measurements: []Measurement{nodeRow(base, 10)}}
		snapshot := []Dataset{NewCohortDataset(cohort, "wse", "rgb(68,1,84)")}

		_ = FilterTimeRange(snapshot, base.Add(24*time.Hour), base.Add(48*time.Hour), time.Minute)
		assert.False(t, snapshot[0].Hidden)
	})
}
