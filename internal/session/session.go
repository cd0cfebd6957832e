// Package session owns the per-session chart state: the canonical unfiltered
// snapshot of fetched series, the filter-derived view, and the statistics
// overlay. All state is explicit and constructed per session; nothing is
// ambient or global.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swotvis/swot-data-service/internal/adapter/stats"
	"github.com/swotvis/swot-data-service/internal/domain"
	"github.com/swotvis/swot-data-service/internal/observability"
)

// TimeSeriesFetcher resolves a canonical query into a time-series response.
type TimeSeriesFetcher interface {
	Fetch(ctx context.Context, params domain.QueryParams) (*domain.TimeSeriesResponse, error)
}

// NodeLister returns the node features composing a reach's long profile.
type NodeLister interface {
	NodesForReach(ctx context.Context, reachID string) ([]*domain.Feature, error)
}

// StatisticsComputer aggregates visible cohort series remotely.
type StatisticsComputer interface {
	ComputeNodeSeries(ctx context.Context, series [][]domain.Measurement) (map[string][]stats.Point, error)
}

// Session is one user's selection, snapshot, and derived chart state. Filter
// passes always recompute from the canonical snapshot, so re-triggering a
// filter while another pass or fetch is in flight can never corrupt state.
type Session struct {
	fetcher  TimeSeriesFetcher
	nodes    NodeLister
	stats    StatisticsComputer
	notifier domain.Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics

	cohortTolerance time.Duration
	nodeConcurrency int

	mu         sync.Mutex
	selected   *domain.Feature
	currentKey string // stale-response guard: cache key of the live selection
	snapshot   []domain.Dataset
	filtered   []domain.Dataset
	overlays   []domain.Dataset

	windowStart, windowEnd time.Time
	accepted               map[int]bool
	yvar                   string
	scale                  domain.ColorScale
	showStats              bool

	subs []func()
}

// Option adjusts session construction.
type Option func(*Session)

// WithCohortTolerance overrides the timestamp grouping tolerance.
func WithCohortTolerance(d time.Duration) Option {
	return func(s *Session) { s.cohortTolerance = d }
}

// WithNodeConcurrency bounds the node fetch fan-out.
func WithNodeConcurrency(n int) Option {
	return func(s *Session) { s.nodeConcurrency = n }
}

// New creates a session. The stats computer and node lister may be nil when
// the corresponding upstream is not configured.
func New(fetcher TimeSeriesFetcher, nodes NodeLister, statsClient StatisticsComputer,
	notifier domain.Notifier, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Session {
	s := &Session{
		fetcher:         fetcher,
		nodes:           nodes,
		stats:           statsClient,
		notifier:        notifier,
		logger:          logger,
		metrics:         metrics,
		cohortTolerance: domain.DefaultCohortTolerance,
		nodeConcurrency: 8,
		accepted:        domain.DefaultAcceptedQuality(),
		yvar:            "wse",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a callback invoked after every state change. Callbacks
// run synchronously on the mutating goroutine and must not call back into
// the session.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Session) notifyChanged() {
	for _, fn := range s.subs {
		fn()
	}
}

// SelectFeature fetches the time series for a reach or lake selection and
// replaces the canonical snapshot with its dataset. A response that resolves
// after the selection has moved on is cached but not applied.
func (s *Session) SelectFeature(ctx context.Context, f *domain.Feature, variables []string, yvar string) error {
	params, err := domain.BuildQuery(f, variables, domain.OutputGeoJSON,
		domain.WithCompact(f.Type != domain.FeatureNode))
	if err != nil {
		s.alert(err)
		return err
	}

	key := params.CacheKey("selection")
	s.mu.Lock()
	s.selected = f
	s.currentKey = key
	s.yvar = yvar
	s.mu.Unlock()

	resp, err := s.fetcher.Fetch(ctx, params)
	if err != nil {
		s.alert(err)
		return err
	}

	measurements := domain.Reshape(resp)
	s.metrics.MeasurementsReshaped.Add(float64(len(measurements)))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentKey != key {
		// A newer selection superseded this fetch while it was in flight.
		s.logger.Debug("discarding stale response", "feature_id", params.FeatureID)
		return nil
	}

	f.Queries = append(f.Queries, resp)
	s.snapshot = []domain.Dataset{domain.NewReachDataset(f.Label(), yvar, measurements)}
	s.overlays = nil
	s.applyFiltersLocked()
	s.notifyChanged()
	return nil
}

// LoadNodeProfile fetches every node of a reach concurrently, groups the
// joined measurements into timestamp cohorts, and replaces the snapshot with
// one dataset per cohort colored by pass recency. Individual node failures
// are logged and skipped; the profile renders from whatever arrived.
func (s *Session) LoadNodeProfile(ctx context.Context, reach *domain.Feature, variables []string, yvar string) error {
	if s.nodes == nil {
		return fmt.Errorf("node geometry service not configured")
	}

	nodes, err := s.nodes.NodesForReach(ctx, reach.ID)
	if err != nil {
		s.alert(err)
		return err
	}
	if len(nodes) == 0 {
		s.alert(domain.ErrNoData)
		return domain.ErrNoData
	}

	s.mu.Lock()
	s.selected = reach
	s.currentKey = "profile:" + reach.ID
	s.yvar = yvar
	s.mu.Unlock()

	measurements := s.fetchNodesConcurrently(ctx, nodes, variables)
	if len(measurements) == 0 {
		s.alert(domain.ErrNoData)
		return domain.ErrNoData
	}

	cohorts := domain.GroupCohorts(measurements, s.cohortTolerance)
	s.metrics.CohortsGrouped.Observe(float64(len(cohorts)))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentKey != "profile:"+reach.ID {
		s.logger.Debug("discarding stale node profile", "reach_id", reach.ID)
		return nil
	}

	scale := s.profileScaleLocked(cohorts)
	snapshot := make([]domain.Dataset, 0, len(cohorts))
	for _, c := range cohorts {
		snapshot = append(snapshot, domain.NewCohortDataset(c, yvar, scale.ColorFor(c.Time)))
	}
	s.snapshot = snapshot
	s.overlays = nil
	s.applyFiltersLocked()
	s.notifyChanged()
	return nil
}

// fetchNodesConcurrently fans out one query per node with bounded parallelism
// and joins the valid measurements. Arrival order is irrelevant: grouping
// re-sorts everything downstream.
func (s *Session) fetchNodesConcurrently(ctx context.Context, nodes []*domain.Feature, variables []string) []domain.Measurement {
	type result struct {
		ms  []domain.Measurement
		err error
	}

	sem := make(chan struct{}, s.nodeConcurrency)
	results := make(chan result, len(nodes))
	var wg sync.WaitGroup

	for _, node := range nodes {
		wg.Add(1)
		go func(node *domain.Feature) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			params, err := domain.BuildQuery(node, variables, domain.OutputGeoJSON)
			if err != nil {
				results <- result{err: err}
				return
			}
			resp, err := s.fetcher.Fetch(ctx, params)
			if err != nil {
				results <- result{err: fmt.Errorf("node %s: %w", node.ID, err)}
				return
			}
			results <- result{ms: domain.Reshape(resp)}
		}(node)
	}

	wg.Wait()
	close(results)

	var joined []domain.Measurement
	for r := range results {
		if r.err != nil {
			s.logger.Warn("node fetch skipped", "error", r.err)
			continue
		}
		joined = append(joined, r.ms...)
	}
	s.metrics.MeasurementsReshaped.Add(float64(len(joined)))
	return joined
}

// SetTimeWindow updates the active window, rebuilds the color scale, and
// recomputes the filtered view from the canonical snapshot.
func (s *Session) SetTimeWindow(ctx context.Context, start, end time.Time) {
	s.mu.Lock()
	s.windowStart, s.windowEnd = start, end
	s.scale = domain.NewColorScale(start, end)
	s.applyFiltersLocked()
	s.notifyChanged()
	s.mu.Unlock()

	s.refreshStatistics(ctx)
}

// SetAcceptedQuality updates the quality screen and recomputes the filtered
// view from the canonical snapshot.
func (s *Session) SetAcceptedQuality(ctx context.Context, accepted map[int]bool) {
	s.mu.Lock()
	s.accepted = accepted
	s.applyFiltersLocked()
	s.notifyChanged()
	s.mu.Unlock()

	s.refreshStatistics(ctx)
}

// applyFiltersLocked recomputes the filtered view: quality screen first, then
// the time window. Both operate on clones; the snapshot is never touched.
func (s *Session) applyFiltersLocked() {
	view := domain.FilterQuality(s.snapshot, s.accepted)
	if !s.windowStart.IsZero() || !s.windowEnd.IsZero() {
		view = domain.FilterTimeRange(view, s.windowStart, s.windowEnd, domain.DefaultFilterTolerance)
	}
	s.filtered = view
}

// profileScaleLocked returns the active color scale, deriving one from the
// cohort span when no explicit window is set.
func (s *Session) profileScaleLocked(cohorts []domain.Cohort) domain.ColorScale {
	if !s.windowStart.IsZero() || !s.windowEnd.IsZero() {
		return s.scale
	}
	return domain.NewColorScale(cohorts[0].Time, cohorts[len(cohorts)-1].Time)
}

// Datasets returns the current chart series: the filtered view plus any
// statistics overlays. The result is a deep copy; callers cannot reach the
// session's state through it.
func (s *Session) Datasets() []domain.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.CloneAll(s.filtered)
	out = append(out, domain.CloneAll(s.overlays)...)
	return out
}

// Selected returns the live selection.
func (s *Session) Selected() *domain.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) alert(err error) {
	if s.notifier != nil {
		s.notifier.Notify(domain.AlertForError(err))
	}
}
