package domain

import (
	"errors"
	"fmt"
)

// Sentinel outcomes that are part of normal operation, not faults.
var (
	// ErrNoVariablesSelected means the requested variables, filtered down to
	// those valid for the feature type, left nothing to query. No request is
	// issued.
	ErrNoVariablesSelected = errors.New("no variables selected for feature type")

	// ErrNoData means the query succeeded but matched no observations
	// (hits < 1 or an HTTP 400 from the time-series API). Charts render
	// nothing and the user sees a warning, not an error.
	ErrNoData = errors.New("no data for query")
)

// QueryErrorKind classifies a failed time-series request.
type QueryErrorKind string

const (
	// QueryErrorNetwork covers transport failures: DNS, refused connections,
	// timeouts, cancelled contexts.
	QueryErrorNetwork QueryErrorKind = "network"
	// QueryErrorServer covers HTTP responses with status >= 500.
	QueryErrorServer QueryErrorKind = "server"
)

// QueryError is a transient fault from the time-series API. It is surfaced to
// the user and the operation is abandoned; there is no automatic retry.
type QueryError struct {
	Kind   QueryErrorKind
	Status int // HTTP status, 0 for transport failures
	Err    error
}

func (e *QueryError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error from time-series API: status %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s error querying time-series API: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// StatisticsError is a failure computing the statistics overlay. The chart
// continues to render without the overlay.
type StatisticsError struct {
	Err error
}

func (e *StatisticsError) Error() string {
	return fmt.Sprintf("compute node series statistics: %v", e.Err)
}

func (e *StatisticsError) Unwrap() error { return e.Err }
