package domain

// Variable describes one SWOT product variable available for charting.
// Definitions come from the SWOT L2_HR_RiverSP product description document.
type Variable struct {
	Abbrev     string
	Name       string
	Unit       string
	Definition string
	Default    bool // plotted unless the user narrows the selection
	Features   []FeatureType
}

var riverTypes = []FeatureType{FeatureReach, FeatureNode}
var allTypes = []FeatureType{FeatureReach, FeatureNode, FeaturePriorLake}

// Catalog lists every user-selectable variable. Bookkeeping variables that are
// always queried (time_str, quality flags, p_dist_out, units) live in
// alwaysInclude instead.
var Catalog = []Variable{
	{
		Abbrev:     "wse",
		Name:       "Water Surface Elevation",
		Unit:       "m",
		Definition: "Fitted water surface elevation relative to the geoid, with media, crossover, and tidal corrections applied.",
		Default:    true,
		Features:   allTypes,
	},
	{
		Abbrev:     "slope",
		Name:       "Slope",
		Unit:       "m/m",
		Definition: "Fitted water surface slope relative to the geoid. Positive slope means the downstream WSE is lower.",
		Default:    true,
		Features:   []FeatureType{FeatureReach},
	},
	{
		Abbrev:     "width",
		Name:       "Width",
		Unit:       "m",
		Definition: "Reach or node width.",
		Features:   riverTypes,
	},
	{
		Abbrev:     "area_total",
		Name:       "Water Surface Area",
		Unit:       "m^2",
		Definition: "Total estimated water surface area, including dark water identified through the prior water probability map.",
		Features:   allTypes,
	},
	{
		Abbrev:     "d_x_area",
		Name:       "Change in Area",
		Unit:       "m^2",
		Definition: "Change in channel cross-sectional area from the value in the prior river database; used in discharge computation.",
		Features:   []FeatureType{FeatureReach},
	},
	{
		Abbrev:     "dschg_c",
		Name:       "Discharge",
		Unit:       "m^3/s",
		Definition: "Discharge from the consensus algorithm.",
		Features:   []FeatureType{FeatureReach},
	},
}

// alwaysInclude lists the variables appended to every query regardless of the
// user's selection: the timestamp, the per-type quality flag, and for rivers
// the distance to outlet that orders long profiles.
var alwaysInclude = map[FeatureType][]string{
	FeatureReach:     {"time_str", "reach_q", "p_dist_out"},
	FeatureNode:      {"time_str", "node_q", "p_dist_out"},
	FeaturePriorLake: {"time_str", "quality_f"},
}

// LookupVariable finds a catalog entry by abbreviation.
func LookupVariable(abbrev string) (Variable, bool) {
	for _, v := range Catalog {
		if v.Abbrev == abbrev {
			return v, true
		}
	}
	return Variable{}, false
}

// DefaultVariables returns the abbreviations plotted by default.
func DefaultVariables() []string {
	var out []string
	for _, v := range Catalog {
		if v.Default {
			out = append(out, v.Abbrev)
		}
	}
	return out
}

// allowedFor reports whether the variable may be queried for the feature type.
func (v Variable) allowedFor(ft FeatureType) bool {
	for _, t := range v.Features {
		if t == ft {
			return true
		}
	}
	return false
}
