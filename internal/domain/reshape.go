package domain

// Reshape converts a time-series response's GeoJSON payload into an ordered,
// validated sequence of measurement rows. Compact responses (one feature whose
// properties are index-aligned arrays) and per-observation responses (one
// feature per row) both reduce to the same shape. Invalid rows are dropped
// here, before any aggregate is computed over the sequence.
func Reshape(resp *TimeSeriesResponse) []Measurement {
	if !resp.HasData() {
		return nil
	}
	features := resp.Results.GeoJSON.Features
	if len(features) == 0 {
		return nil
	}
	if resp.Params.Compact || looksColumnar(features[0].Properties) {
		return ReshapeColumnar(features[0].Properties)
	}
	return ReshapeFeatures(features)
}

// ReshapeColumnar converts compact-mode per-variable arrays into rows. Row
// order follows the time_str column; values are not re-sorted at this stage.
// Rows failing the validity screen are removed.
func ReshapeColumnar(props map[string]any) []Measurement {
	times, ok := props["time_str"].([]any)
	if !ok {
		return nil
	}
	out := make([]Measurement, 0, len(times))
	for i := range times {
		m := rowFromProperties(props, i)
		if m.Valid() {
			out = append(out, m)
		}
	}
	return out
}

// ReshapeFeatures converts one-feature-per-observation responses into rows,
// keeping the original feature order and dropping invalid rows.
func ReshapeFeatures(features []GeoFeature) []Measurement {
	out := make([]Measurement, 0, len(features))
	for _, f := range features {
		m := rowFromProperties(f.Properties, -1)
		if m.Valid() {
			out = append(out, m)
		}
	}
	return out
}

// looksColumnar detects compact-mode payloads that were cached before the
// params annotation carried the compact flag.
func looksColumnar(props map[string]any) bool {
	_, ok := props["time_str"].([]any)
	return ok
}
