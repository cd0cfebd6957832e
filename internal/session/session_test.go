package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swotvis/swot-data-service/internal/adapter/stats"
	"github.com/swotvis/swot-data-service/internal/domain"
	"github.com/swotvis/swot-data-service/internal/observability"
)

// --- fakes ---

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	respond func(params domain.QueryParams) (*domain.TimeSeriesResponse, error)
}

func (f *fakeFetcher) Fetch(_ context.Context, params domain.QueryParams) (*domain.TimeSeriesResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.respond(params)
}

type fakeNodeLister struct {
	nodes []*domain.Feature
	err   error
}

func (f *fakeNodeLister) NodesForReach(_ context.Context, _ string) ([]*domain.Feature, error) {
	return f.nodes, f.err
}

type fakeStats struct {
	result map[string][]stats.Point
	err    error
	calls  int
}

func (f *fakeStats) ComputeNodeSeries(_ context.Context, _ [][]domain.Measurement) (map[string][]stats.Point, error) {
	f.calls++
	return f.result, f.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (n *recordingNotifier) Notify(a domain.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
}

func (n *recordingNotifier) last() (domain.Alert, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.alerts) == 0 {
		return domain.Alert{}, false
	}
	return n.alerts[len(n.alerts)-1], true
}

// --- helpers ---

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func reachFeature(id string) *domain.Feature {
	return &domain.Feature{Type: domain.FeatureReach, ID: id, Name: "Tanana River"}
}

func reachResponse(times []string, wse []string) *domain.TimeSeriesResponse {
	timeCol := make([]any, len(times))
	for i, v := range times {
		timeCol[i] = v
	}
	wseCol := make([]any, len(wse))
	for i, v := range wse {
		wseCol[i] = v
	}
	return &domain.TimeSeriesResponse{
		Hits: len(times),
		Results: domain.Results{
			GeoJSON: domain.FeatureCollection{
				Features: []domain.GeoFeature{{
					Properties: map[string]any{"time_str": timeCol, "wse": wseCol},
				}},
			},
		},
	}
}

func nodeResponse(ts string, distOut string) *domain.TimeSeriesResponse {
	return &domain.TimeSeriesResponse{
		Hits: 1,
		Results: domain.Results{
			GeoJSON: domain.FeatureCollection{
				Features: []domain.GeoFeature{{
					Properties: map[string]any{
						"time_str":   []any{ts},
						"wse":        []any{"100.0"},
						"node_q":     []any{"0"},
						"p_dist_out": []any{distOut},
					},
				}},
			},
		},
	}
}

func newTestSession(f *fakeFetcher, n NodeLister, st StatisticsComputer, notifier domain.Notifier) *Session {
	return New(f, n, st, notifier, testLogger(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestSession_SelectFeature(t *testing.T) {
	fetcher := &fakeFetcher{respond: func(_ domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		return reachResponse(
			[]string{"2024-01-15T20:04:41Z", "2024-01-26T09:38:18Z"},
			[]string{"155.4", "154.9"},
		), nil
	}}
	s := newTestSession(fetcher, nil, nil, nil)

	var changes int
	s.OnChange(func() { changes++ })

	err := s.SelectFeature(context.Background(), reachFeature("72390300011"), []string{"wse"}, "wse")
	require.NoError(t, err)

	datasets := s.Datasets()
	require.Len(t, datasets, 1)
	assert.Equal(t, domain.SeriesReach, datasets[0].SeriesType)
	assert.Equal(t, "Tanana River | 72390300011", datasets[0].Label)
	assert.Len(t, datasets[0].Data, 2)
	assert.Equal(t, 1, changes)
	assert.NotEmpty(t, s.Selected().Queries, "response recorded for provenance")
}

func TestSession_SelectFeature_NoData(t *testing.T) {
	fetcher := &fakeFetcher{respond: func(_ domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		return nil, domain.ErrNoData
	}}
	notifier := &recordingNotifier{}
	s := newTestSession(fetcher, nil, nil, notifier)

	err := s.SelectFeature(context.Background(), reachFeature("72390300011"), []string{"wse"}, "wse")
	require.ErrorIs(t, err, domain.ErrNoData)

	assert.Empty(t, s.Datasets())
	alert, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, alert.Severity)
}

func TestSession_SelectFeature_NoVariables(t *testing.T) {
	fetcher := &fakeFetcher{respond: func(_ domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		t.Fatal("no request should be issued")
		return nil, nil
	}}
	notifier := &recordingNotifier{}
	s := newTestSession(fetcher, nil, nil, notifier)

	lake := &domain.Feature{Type: domain.FeaturePriorLake, ID: "7720003433"}
	err := s.SelectFeature(context.Background(), lake, []string{"slope"}, "slope")
	require.ErrorIs(t, err, domain.ErrNoVariablesSelected)
	assert.Equal(t, 0, fetcher.calls)
}

func TestSession_StaleResponseNotApplied(t *testing.T) {
	release := make(chan struct{})
	fetcher := &fakeFetcher{respond: func(params domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		if params.FeatureID == "slow" {
			<-release
		}
		return reachResponse([]string{"2024-01-15T20:04:41Z"}, []string{"155.4"}), nil
	}}
	s := newTestSession(fetcher, nil, nil, nil)

	done := make(chan error)
	go func() {
		done <- s.SelectFeature(context.Background(), reachFeature("slow"), []string{"wse"}, "wse")
	}()

	// Wait for the slow fetch to be registered as the live selection, then
	// supersede it.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.currentKey != ""
	}, time.Second, time.Millisecond)

	require.NoError(t, s.SelectFeature(context.Background(), reachFeature("fast"), []string{"wse"}, "wse"))
	close(release)
	require.NoError(t, <-done)

	datasets := s.Datasets()
	require.Len(t, datasets, 1)
	assert.Equal(t, "Tanana River | fast", datasets[0].Label)
}

func TestSession_LoadNodeProfile(t *testing.T) {
	base := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	nodes := []*domain.Feature{
		{Type: domain.FeatureNode, ID: "n1"},
		{Type: domain.FeatureNode, ID: "n2"},
		{Type: domain.FeatureNode, ID: "n3"},
	}
	// n1 and n2 observed in the same pass, n3 five minutes later.
	responses := map[string]*domain.TimeSeriesResponse{
		"n1": nodeResponse(base.Format(time.RFC3339), "3000.0"),
		"n2": nodeResponse(base.Add(30*time.Second).Format(time.RFC3339), "1000.0"),
		"n3": nodeResponse(base.Add(5*time.Minute).Format(time.RFC3339), "2000.0"),
	}
	fetcher := &fakeFetcher{respond: func(params domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		return responses[params.FeatureID], nil
	}}
	s := newTestSession(fetcher, &fakeNodeLister{nodes: nodes}, nil, nil)

	err := s.LoadNodeProfile(context.Background(), reachFeature("72390300011"), []string{"wse"}, "wse")
	require.NoError(t, err)

	datasets := s.Datasets()
	require.Len(t, datasets, 2, "two cohorts expected")
	for _, d := range datasets {
		assert.Equal(t, domain.SeriesNode, d.SeriesType)
		assert.NotEmpty(t, d.BorderColor)
	}
	// First cohort spatially ordered by distance to outlet.
	require.Len(t, datasets[0].Data, 2)
	assert.Equal(t, 1000.0, datasets[0].Data[0].DistOut())
	assert.Equal(t, 3000.0, datasets[0].Data[1].DistOut())
	assert.Equal(t, 3, fetcher.calls)
}

func TestSession_LoadNodeProfile_PartialFailures(t *testing.T) {
	base := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	nodes := []*domain.Feature{
		{Type: domain.FeatureNode, ID: "n1"},
		{Type: domain.FeatureNode, ID: "n2"},
	}
	fetcher := &fakeFetcher{respond: func(params domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		if params.FeatureID == "n2" {
			return nil, domain.ErrNoData
		}
		return nodeResponse(base.Format(time.RFC3339), "1000.0"), nil
	}}
	s := newTestSession(fetcher, &fakeNodeLister{nodes: nodes}, nil, nil)

	err := s.LoadNodeProfile(context.Background(), reachFeature("72390300011"), []string{"wse"}, "wse")
	require.NoError(t, err)

	datasets := s.Datasets()
	require.Len(t, datasets, 1)
	assert.Len(t, datasets[0].Data, 1)
}

func TestSession_Filters(t *testing.T) {
	base := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	times := make([]string, 5)
	wses := make([]string, 5)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * 24 * time.Hour).Format(time.RFC3339)
		wses[i] = "155.4"
	}
	fetcher := &fakeFetcher{respond: func(_ domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		return reachResponse(times, wses), nil
	}}
	s := newTestSession(fetcher, nil, nil, nil)
	require.NoError(t, s.SelectFeature(context.Background(), reachFeature("r"), []string{"wse"}, "wse"))

	t.Run("narrow then widen restores from the snapshot", func(t *testing.T) {
		s.SetTimeWindow(context.Background(), base.Add(24*time.Hour), base.Add(2*24*time.Hour))
		assert.Len(t, s.Datasets()[0].Data, 2)

		s.SetTimeWindow(context.Background(), time.Time{}, time.Time{})
		assert.Len(t, s.Datasets()[0].Data, 5)
	})

	t.Run("quality setter recomputes from the snapshot", func(t *testing.T) {
		s.SetAcceptedQuality(context.Background(), map[int]bool{domain.QualityGood: true})
		// Rows carry no flag, so all survive; the pass must still be stable.
		assert.Len(t, s.Datasets()[0].Data, 5)
	})
}

func TestSession_Statistics(t *testing.T) {
	base := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	nodes := []*domain.Feature{{Type: domain.FeatureNode, ID: "n1"}}
	fetcher := &fakeFetcher{respond: func(_ domain.QueryParams) (*domain.TimeSeriesResponse, error) {
		return nodeResponse(base.Format(time.RFC3339), "1000.0"), nil
	}}

	f := func(v float64) *float64 { return &v }
	statsClient := &fakeStats{result: map[string][]stats.Point{
		"median": {{"p_dist_out": f(1000), "wse": f(100)}},
		"q0.25":  {{"p_dist_out": f(1000), "wse": f(95)}},
		"q0.75":  {{"p_dist_out": f(1000), "wse": f(105)}},
	}}
	s := newTestSession(fetcher, &fakeNodeLister{nodes: nodes}, statsClient, nil)
	require.NoError(t, s.LoadNodeProfile(context.Background(), reachFeature("r"), []string{"wse"}, "wse"))

	t.Run("toggle on appends overlays", func(t *testing.T) {
		require.NoError(t, s.SetStatistics(context.Background(), true))

		datasets := s.Datasets()
		require.Len(t, datasets, 4) // 1 cohort + median + IQR band pair

		labels := []string{}
		for _, d := range datasets {
			if d.SeriesType == domain.SeriesComputed {
				labels = append(labels, d.Label)
			}
		}
		assert.Equal(t, []string{"median", "IQR", "q0.75"}, labels)

		last := datasets[len(datasets)-1]
		assert.Equal(t, "-1", last.Fill, "upper quantile bands against the lower")
	})

	t.Run("filter change recomputes while on", func(t *testing.T) {
		before := statsClient.calls
		s.SetTimeWindow(context.Background(), base.Add(-time.Hour), base.Add(time.Hour))
		assert.Equal(t, before+1, statsClient.calls)
	})

	t.Run("toggle off removes overlays", func(t *testing.T) {
		require.NoError(t, s.SetStatistics(context.Background(), false))
		for _, d := range s.Datasets() {
			assert.NotEqual(t, domain.SeriesComputed, d.SeriesType)
		}
	})

	t.Run("remote failure clears overlay and keeps observed series", func(t *testing.T) {
		statsClient.err = &domain.StatisticsError{Err: assert.AnError}
		err := s.SetStatistics(context.Background(), true)
		require.Error(t, err)

		datasets := s.Datasets()
		require.NotEmpty(t, datasets)
		for _, d := range datasets {
			assert.NotEqual(t, domain.SeriesComputed, d.SeriesType)
		}
	})
}
