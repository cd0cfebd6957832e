package domain

import (
	"errors"
	"fmt"
	"time"
)

// Severity grades a user-facing alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Alert is a dismissible, auto-expiring user notification.
type Alert struct {
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	Severity Severity      `json:"type"`
	Duration time.Duration `json:"-"`
	Closable bool          `json:"closable"`
}

// Notifier receives user-facing alerts. Implementations decide how they are
// displayed or forwarded.
type Notifier interface {
	Notify(Alert)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Alert)

func (f NotifierFunc) Notify(a Alert) { f(a) }

// AlertForError maps the error taxonomy onto the alert it should raise.
// No-data and empty-selection outcomes are warnings; transport, server, and
// statistics failures are errors.
func AlertForError(err error) Alert {
	switch {
	case errors.Is(err, ErrNoVariablesSelected):
		return Alert{
			Title:    "No variables selected",
			Text:     "Select at least one variable valid for this feature type before querying.",
			Severity: SeverityWarning,
			Duration: 10 * time.Second,
			Closable: true,
		}
	case errors.Is(err, ErrNoData):
		return Alert{
			Title:    "No data found",
			Text:     "No SWOT observations matched the query.",
			Severity: SeverityWarning,
			Duration: 10 * time.Second,
			Closable: true,
		}
	}

	var statsErr *StatisticsError
	if errors.As(err, &statsErr) {
		return Alert{
			Title:    "Statistics unavailable",
			Text:     fmt.Sprintf("Could not compute series statistics: %v", statsErr.Err),
			Severity: SeverityError,
			Duration: 6 * time.Second,
			Closable: true,
		}
	}

	return Alert{
		Title:    "Error fetching SWOT data",
		Text:     err.Error(),
		Severity: SeverityError,
		Duration: 3 * time.Second,
		Closable: true,
	}
}
