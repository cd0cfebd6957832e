package domain

import "time"

// Quality flag values per the SWOT product descriptions.
const (
	QualityGood     = 0
	QualitySuspect  = 1
	QualityDegraded = 2
	QualityBad      = 3
)

// DefaultAcceptedQuality keeps good and suspect observations and screens out
// degraded and bad ones.
func DefaultAcceptedQuality() map[int]bool {
	return map[int]bool{QualityGood: true, QualitySuspect: true}
}

// DefaultFilterTolerance buffers the time-range window on both ends so
// observations at the exact boundary are not lost to clock skew.
const DefaultFilterTolerance = time.Minute

// qualityPointStyles maps a flag value to the point shape and border color the
// chart uses to distinguish quality classes.
var qualityPointStyles = map[int]struct{ style, border string }{
	QualityGood:     {"circle", "rgb(75,192,92)"},
	QualitySuspect:  {"triangle", "rgb(255,159,64)"},
	QualityDegraded: {"rect", "rgb(255,99,132)"},
	QualityBad:      {"crossRot", "rgb(201,25,25)"},
}

// FilterQuality derives a view of the snapshot keeping only points whose
// quality flag is in the accepted set. Observed series (reach and node) are
// filtered point-wise with per-point styles recomputed; computed overlays pass
// through untouched. The snapshot itself is never mutated, so reapplying with
// the same accepted set is idempotent.
func FilterQuality(snapshot []Dataset, accepted map[int]bool) []Dataset {
	out := make([]Dataset, len(snapshot))
	for i, d := range snapshot {
		if d.SeriesType != SeriesReach && d.SeriesType != SeriesNode {
			out[i] = d.Clone()
			continue
		}
		kept := make([]Measurement, 0, len(d.Data))
		styles := make([]string, 0, len(d.Data))
		borders := make([]string, 0, len(d.Data))
		for _, m := range d.Data {
			q, ok := m.Quality()
			if ok && !accepted[q] {
				continue
			}
			kept = append(kept, m)
			s := qualityPointStyles[q]
			styles = append(styles, s.style)
			borders = append(borders, s.border)
		}
		fd := d.Clone()
		fd.Data = kept
		fd.PointStyles = styles
		fd.PointBorderColors = borders
		fd.MinDateTime, fd.MaxDateTime = TimeBounds(kept)
		out[i] = fd
	}
	return out
}

// FilterTimeRange derives a view of the snapshot restricted to [start, end],
// buffered by tolerance on both ends. Reach series are filtered point-wise
// with min/max recomputed; node cohorts are hidden or shown whole by comparing
// their [min, max] against the window, never partially filtered. Computed
// overlays pass through. Always recomputes from the snapshot, so widening the
// window back restores every originally-valid point.
func FilterTimeRange(snapshot []Dataset, start, end time.Time, tolerance time.Duration) []Dataset {
	if tolerance < 0 {
		tolerance = DefaultFilterTolerance
	}
	lo := start.Add(-tolerance)
	hi := end.Add(tolerance)

	out := make([]Dataset, len(snapshot))
	for i, d := range snapshot {
		switch d.SeriesType {
		case SeriesReach:
			fd := d.Clone()
			kept := make([]Measurement, 0, len(d.Data))
			for _, m := range d.Data {
				if inWindow(m.Datetime, lo, hi, start, end) {
					kept = append(kept, m)
				}
			}
			fd.Data = kept
			fd.MinDateTime, fd.MaxDateTime = TimeBounds(kept)
			out[i] = fd
		case SeriesNode:
			fd := d.Clone()
			fd.Hidden = !overlaps(fd.MinDateTime, fd.MaxDateTime, lo, hi, start, end)
			out[i] = fd
		default:
			out[i] = d.Clone()
		}
	}
	return out
}

// inWindow checks a timestamp against the buffered window. Zero window bounds
// mean unbounded on that side.
func inWindow(t, lo, hi time.Time, start, end time.Time) bool {
	if !start.IsZero() && t.Before(lo) {
		return false
	}
	if !end.IsZero() && t.After(hi) {
		return false
	}
	return true
}

// overlaps checks whether a cohort's [min, max] intersects the buffered window.
func overlaps(min, max, lo, hi time.Time, start, end time.Time) bool {
	if !start.IsZero() && max.Before(lo) {
		return false
	}
	if !end.IsZero() && min.After(hi) {
		return false
	}
	return true
}
