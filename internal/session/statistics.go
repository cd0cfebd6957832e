package session

import (
	"context"
	"sort"

	"github.com/swotvis/swot-data-service/internal/adapter/stats"
	"github.com/swotvis/swot-data-service/internal/domain"
)

// SetStatistics toggles the overlay. Enabling computes it immediately from
// the currently visible cohorts; disabling drops the computed series.
func (s *Session) SetStatistics(ctx context.Context, on bool) error {
	s.mu.Lock()
	s.showStats = on
	if !on {
		s.overlays = nil
		s.notifyChanged()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.refreshStatistics(ctx)
}

// refreshStatistics recomputes the overlay from the visible cohort set when
// the overlay is on. A failure raises an alert and clears the overlay; the
// observed series keep rendering.
func (s *Session) refreshStatistics(ctx context.Context) error {
	s.mu.Lock()
	if !s.showStats || s.stats == nil {
		s.mu.Unlock()
		return nil
	}
	visible := visibleCohortSeries(s.filtered)
	yvar := s.yvar
	s.mu.Unlock()

	if len(visible) == 0 {
		s.mu.Lock()
		s.overlays = nil
		s.notifyChanged()
		s.mu.Unlock()
		return nil
	}

	result, err := s.stats.ComputeNodeSeries(ctx, visible)
	if err != nil {
		s.metrics.StatisticsRequests.WithLabelValues("error").Inc()
		s.alert(err)
		s.mu.Lock()
		s.overlays = nil
		s.notifyChanged()
		s.mu.Unlock()
		return err
	}
	s.metrics.StatisticsRequests.WithLabelValues("success").Inc()

	overlays := BuildOverlaySeries(result, yvar)

	s.mu.Lock()
	s.overlays = overlays
	s.notifyChanged()
	s.mu.Unlock()
	return nil
}

// visibleCohortSeries extracts the point arrays of non-hidden node cohorts.
func visibleCohortSeries(datasets []domain.Dataset) [][]domain.Measurement {
	var out [][]domain.Measurement
	for _, d := range datasets {
		if d.SeriesType != domain.SeriesNode || d.Hidden {
			continue
		}
		out = append(out, d.Data)
	}
	return out
}

// BuildOverlaySeries turns the statistics response into chart series. The two
// quantiles merge into a single shaded interquartile band: the q0.25 series
// is emitted first, then q0.75 filled against it ("-1"). Every other
// statistic becomes a plain line. All overlays are computed_series so the
// quality and time filters leave them alone.
func BuildOverlaySeries(result map[string][]stats.Point, yvar string) []domain.Dataset {
	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)

	var overlays []domain.Dataset
	for _, name := range names {
		if name == "q0.25" || name == "q0.75" {
			continue
		}
		overlays = append(overlays, overlaySeries(name, result[name], yvar, domain.Dataset{
			BorderColor: "blue",
		}))
	}

	lower, hasLower := result["q0.25"]
	upper, hasUpper := result["q0.75"]
	if hasLower && hasUpper {
		overlays = append(overlays, overlaySeries("IQR", lower, yvar, domain.Dataset{
			BorderColor: "gray",
		}))
		overlays = append(overlays, overlaySeries("q0.75", upper, yvar, domain.Dataset{
			BorderColor:     "gray",
			BackgroundColor: "lightgray",
			Fill:            "-1",
		}))
	}
	return overlays
}

func overlaySeries(label string, points []stats.Point, yvar string, style domain.Dataset) domain.Dataset {
	data := make([]domain.Measurement, 0, len(points))
	for _, p := range points {
		m := domain.Measurement{Values: make(map[string]float64, len(p))}
		for k, v := range p {
			if v != nil {
				m.Values[k] = *v
			}
		}
		if _, ok := m.Values[yvar]; !ok {
			continue // the remote aggregation had no data for this node
		}
		data = append(data, m)
	}

	return domain.Dataset{
		Label:           label,
		Data:            data,
		SeriesType:      domain.SeriesComputed,
		XKey:            "p_dist_out",
		YKey:            yvar,
		ShowLine:        true,
		BorderColor:     style.BorderColor,
		BackgroundColor: style.BackgroundColor,
		Fill:            style.Fill,
		BorderWidth:     1,
		PointRadius:     0,
	}
}
