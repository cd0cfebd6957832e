// Package domain models SWOT (Surface Water and Ocean Topography) river and
// lake observations as served by the HydroCron time-series API.
//
// # Data Source
//
// Observations come from the SWOT mission Level-2 river and lake single-pass
// products (RiverSP and LakeSP), distributed through PO.DAAC's HydroCron API.
// Each query targets one feature from the SWORD river database (a reach or a
// node) or the Prior Lake Database, identified by reach_id, node_id, or
// lake_id respectively.
//
// # HydroCron Response Conventions
//
// Responses carry a hit count and a GeoJSON feature collection:
//
//	hits >= 1 means usable data; hits 0 or absent means "no data", which is a
//	normal outcome for a feature with no overpass in the window, not a fault.
//
// In compact mode every variable arrives as an index-aligned array on a single
// feature's properties ({"wse": [...], "time_str": [...], ...}); in non-compact
// mode each observation is its own feature. Both shapes reduce to the same
// row-oriented Measurement sequence.
//
// Sentinel values:
//
//	"no_data" in time_str marks an empty observation slot.
//	-999999999999.0 marks a variable the processor could not produce. Rows
//	carrying the sentinel in a screened variable (wse, slope, width) are
//	dropped entirely rather than rendered as holes.
//
// Quality flags:
//
//	0 good, 1 suspect, 2 degraded, 3 bad. The flag field depends on product
//	level: quality_f, reach_q, or node_q. When several are present the
//	resolution order is quality_f, then reach_q, then node_q.
//
// # Cohorts
//
// Node observations along one reach are taken during a single satellite pass,
// but their timestamps differ by a few seconds of along-track travel. A cohort
// groups node measurements whose consecutive timestamps lie within a tolerance
// (default one minute) so a long-profile chart can treat them as one pass.
// Grouping is chained: each measurement is compared to its predecessor, so a
// cohort's total span can drift past the tolerance across many points.
package domain
