package domain

import (
	"encoding/json"
	"fmt"
)

// FeatureType tags the three kinds of hydrologic features the time-series API
// can be queried for. Values match the API's `feature` parameter verbatim.
type FeatureType string

const (
	FeatureReach     FeatureType = "Reach"
	FeatureNode      FeatureType = "Node"
	FeaturePriorLake FeatureType = "PriorLake"
)

// idFields maps each feature type to the property naming its domain identifier.
var idFields = map[FeatureType]string{
	FeatureReach:     "reach_id",
	FeatureNode:      "node_id",
	FeaturePriorLake: "lake_id",
}

// QualityField returns the quality-flag variable attached to measurements of
// this feature type.
func (t FeatureType) QualityField() string {
	switch t {
	case FeatureReach:
		return "reach_q"
	case FeatureNode:
		return "node_q"
	case FeaturePriorLake:
		return "quality_f"
	}
	return ""
}

// Collection returns the HydroCron collection holding this feature type's
// observations.
func (t FeatureType) Collection() string {
	switch t {
	case FeatureReach:
		return "SWOT_L2_HR_RiverSP_reach_2.0"
	case FeatureNode:
		return "SWOT_L2_HR_RiverSP_node_2.0"
	case FeaturePriorLake:
		return "SWOT_L2_HR_LakeSP_prior_2.0"
	}
	return ""
}

// Feature is one selectable hydrologic feature: a SWORD reach or node, or a
// prior-database lake. Upstream feature services are inconsistent about shape
// (GeoJSON "properties" vs ArcGIS "attributes", different id fields per type),
// so everything is normalized through NormalizeFeature once at ingestion.
type Feature struct {
	Type       FeatureType
	ID         string // domain identifier: reach_id, node_id, or lake_id
	Name       string // river_name / lake_name when present
	Geometry   json.RawMessage
	Properties map[string]any

	// Queries accumulates responses fetched for this feature, for provenance.
	Queries []*TimeSeriesResponse
}

// NormalizeFeature builds a tagged Feature from a raw feature object. It
// accepts either a "properties" or an "attributes" map and resolves the
// feature type from whichever identifier property is present, preferring
// reach_id over node_id over lake_id.
func NormalizeFeature(raw map[string]any) (*Feature, error) {
	props, ok := raw["properties"].(map[string]any)
	if !ok {
		if props, ok = raw["attributes"].(map[string]any); !ok {
			return nil, fmt.Errorf("feature has no properties or attributes map")
		}
	}

	ft, id, ok := resolveFeatureType(props)
	if !ok {
		return nil, fmt.Errorf("feature properties carry no reach_id, node_id, or lake_id")
	}

	f := &Feature{
		Type:       ft,
		ID:         id,
		Properties: props,
	}
	if name, ok := props["river_name"].(string); ok {
		f.Name = name
	} else if name, ok := props["lake_name"].(string); ok {
		f.Name = name
	}
	if geom, ok := raw["geometry"]; ok && geom != nil {
		if b, err := json.Marshal(geom); err == nil {
			f.Geometry = b
		}
	}
	return f, nil
}

// resolveFeatureType inspects an attribute map for a known identifier.
// node_id is checked before reach_id because node features carry both.
func resolveFeatureType(props map[string]any) (FeatureType, string, bool) {
	for _, ft := range []FeatureType{FeatureNode, FeatureReach, FeaturePriorLake} {
		if v, ok := props[idFields[ft]]; ok {
			if id := stringify(v); id != "" {
				return ft, id, true
			}
		}
	}
	return "", "", false
}

// Label returns the display label used for chart series, matching the
// "<name> | <id>" convention of the viewer.
func (f *Feature) Label() string {
	if f.Name == "" {
		return f.ID
	}
	return f.Name + " | " + f.ID
}

// stringify renders identifier values that may arrive as JSON strings or
// numbers. Large SWORD ids lose precision as float64, so json.Number inputs
// are preserved verbatim.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%.0f", t)
	case int:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	default:
		return ""
	}
}
