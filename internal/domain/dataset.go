package domain

import "time"

// SeriesType distinguishes observed series from computed overlays so filters
// know what to touch. Values match the viewer's chart metadata.
type SeriesType string

const (
	SeriesReach    SeriesType = "swot_reach_series"
	SeriesNode     SeriesType = "swot_node_series"
	SeriesComputed SeriesType = "computed_series"
)

// Dataset is one chart series: a labelled run of measurements plus the
// styling the chart layer consumes directly.
type Dataset struct {
	Label      string        `json:"label"`
	Data       []Measurement `json:"data"`
	SeriesType SeriesType    `json:"seriesType"`

	XKey string `json:"xAxisKey"`
	YKey string `json:"yAxisKey"`

	MinDateTime time.Time `json:"minDateTime,omitzero"`
	MaxDateTime time.Time `json:"maxDateTime,omitzero"`

	// Hidden is filter-derived view state; it is never written back into the
	// unfiltered snapshot.
	Hidden bool `json:"hidden"`

	BorderColor     string  `json:"borderColor,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Fill            string  `json:"fill,omitempty"` // "-1" bands against the previous series
	ShowLine        bool    `json:"showLine"`
	BorderWidth     float64 `json:"borderWidth,omitempty"`
	PointRadius     float64 `json:"pointRadius,omitempty"`

	// Per-point styling, index-aligned with Data. Recomputed by the quality
	// filter.
	PointStyles       []string `json:"pointStyle,omitempty"`
	PointBorderColors []string `json:"pointBorderColor,omitempty"`
}

// NewReachDataset builds the single time-series dataset for a reach or lake
// selection.
func NewReachDataset(label, yvar string, ms []Measurement) Dataset {
	min, max := TimeBounds(ms)
	return Dataset{
		Label:       label,
		Data:        ms,
		SeriesType:  SeriesReach,
		XKey:        "datetime",
		YKey:        yvar,
		MinDateTime: min,
		MaxDateTime: max,
		ShowLine:    false,
		PointRadius: 4,
	}
}

// NewCohortDataset builds one long-profile dataset per cohort. All points in
// the cohort share one color so the chart encodes pass recency.
func NewCohortDataset(c Cohort, yvar, color string) Dataset {
	min, max := TimeBounds(c.Measurements)
	return Dataset{
		Label:       c.Time.UTC().Format(time.RFC3339),
		Data:        c.Measurements,
		SeriesType:  SeriesNode,
		XKey:        "p_dist_out",
		YKey:        yvar,
		MinDateTime: min,
		MaxDateTime: max,
		BorderColor: color,
		ShowLine:    true,
		BorderWidth: 1.5,
		PointRadius: 3,
	}
}

// Clone deep-copies the dataset so filters can derive views without touching
// the canonical snapshot. Measurement maps are shared: filters drop or hide
// rows, they never edit row contents.
func (d Dataset) Clone() Dataset {
	out := d
	out.Data = make([]Measurement, len(d.Data))
	copy(out.Data, d.Data)
	if d.PointStyles != nil {
		out.PointStyles = append([]string(nil), d.PointStyles...)
	}
	if d.PointBorderColors != nil {
		out.PointBorderColors = append([]string(nil), d.PointBorderColors...)
	}
	return out
}

// CloneAll deep-copies a snapshot.
func CloneAll(datasets []Dataset) []Dataset {
	out := make([]Dataset, len(datasets))
	for i, d := range datasets {
		out[i] = d.Clone()
	}
	return out
}
