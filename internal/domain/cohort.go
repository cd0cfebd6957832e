package domain

import "time"

// DefaultCohortTolerance is the maximum gap between consecutive node
// timestamps still considered part of the same satellite pass.
const DefaultCohortTolerance = time.Minute

// Cohort is a set of node measurements judged to share one observation pass,
// internally ordered by distance to outlet ascending.
type Cohort struct {
	// Time keys the cohort: the timestamp of the last measurement seen before
	// the flush. Downstream comparisons are made against this flush point.
	Time         time.Time
	Measurements []Measurement
}

// GroupCohorts partitions measurements into timestamp cohorts. Rows are stably
// sorted by datetime, then walked once: a row within tolerance of the previous
// row joins the current group, otherwise the group is flushed keyed by the
// previous row's time and a new group starts. The tolerance is chained, so a
// cohort's total span may drift beyond one tolerance window; every
// consecutive-pair gap stays within tolerance.
func GroupCohorts(ms []Measurement, tolerance time.Duration) []Cohort {
	if len(ms) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultCohortTolerance
	}

	sorted := make([]Measurement, len(ms))
	copy(sorted, ms)
	sortByDatetime(sorted)

	var cohorts []Cohort
	current := []Measurement{sorted[0]}
	lastTime := sorted[0].Datetime

	for _, m := range sorted[1:] {
		if absDuration(m.Datetime.Sub(lastTime)) <= tolerance {
			current = append(current, m)
		} else {
			cohorts = append(cohorts, flush(current, lastTime))
			current = []Measurement{m}
		}
		lastTime = m.Datetime
	}
	cohorts = append(cohorts, flush(current, lastTime))
	return cohorts
}

func flush(group []Measurement, at time.Time) Cohort {
	sortByDistOut(group)
	return Cohort{Time: at, Measurements: group}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
