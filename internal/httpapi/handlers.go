package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/swotvis/swot-data-service/internal/domain"
	"github.com/swotvis/swot-data-service/internal/session"
)

// handleVariables lists the chartable variable catalog.
func (s *Server) handleVariables(c *gin.Context) {
	type entry struct {
		Abbrev     string   `json:"abbrev"`
		Name       string   `json:"name"`
		Unit       string   `json:"unit"`
		Definition string   `json:"definition"`
		Default    bool     `json:"default"`
		Features   []string `json:"features"`
	}

	out := make([]entry, 0, len(domain.Catalog))
	for _, v := range domain.Catalog {
		features := make([]string, 0, len(v.Features))
		for _, ft := range v.Features {
			features = append(features, string(ft))
		}
		out = append(out, entry{
			Abbrev:     v.Abbrev,
			Name:       v.Name,
			Unit:       v.Unit,
			Definition: v.Definition,
			Default:    v.Default,
			Features:   features,
		})
	}
	c.JSON(http.StatusOK, gin.H{"variables": out})
}

// handleTimeSeries fetches one feature's time series and returns the chart
// datasets after the requested filters. With output=csv the raw upstream CSV
// is passed through instead.
func (s *Server) handleTimeSeries(c *gin.Context) {
	feature, err := parseFeature(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variables := parseVariables(c)
	yvar := c.DefaultQuery("yvar", "wse")

	if c.Query("output") == "csv" {
		s.serveCSV(c, feature, variables)
		return
	}

	start, end, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	accepted, err := parseQuality(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.metrics.SelectionsActive.Inc()
	defer s.metrics.SelectionsActive.Dec()

	alerts := &alertCollector{}
	sess := s.newSession(alerts)

	if err := sess.SelectFeature(c.Request.Context(), feature, variables, yvar); err != nil {
		s.respondError(c, err, alerts)
		return
	}
	if accepted != nil {
		sess.SetAcceptedQuality(c.Request.Context(), accepted)
	}
	if !start.IsZero() || !end.IsZero() {
		sess.SetTimeWindow(c.Request.Context(), start, end)
	}

	c.JSON(http.StatusOK, gin.H{
		"feature":  gin.H{"type": feature.Type, "id": feature.ID, "label": feature.Label()},
		"datasets": sess.Datasets(),
		"alerts":   alerts.alerts,
	})
}

func (s *Server) serveCSV(c *gin.Context, feature *domain.Feature, variables []string) {
	params, err := domain.BuildQuery(feature, variables, domain.OutputCSV)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	resp, err := s.fetcher.Fetch(c.Request.Context(), params)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/csv", []byte(resp.Results.CSV))
}

// handleNodeProfile builds the long-profile view of a reach: every node
// fetched, cohorts grouped, one dataset per pass. statistics=true also
// computes the overlay.
func (s *Server) handleNodeProfile(c *gin.Context) {
	reachID := c.Query("reach_id")
	if reachID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reach_id is required"})
		return
	}
	variables := parseVariables(c)
	yvar := c.DefaultQuery("yvar", "wse")

	start, end, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	withStats := false
	if v := c.Query("statistics"); v != "" {
		if withStats, err = strconv.ParseBool(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statistics parameter"})
			return
		}
	}

	s.metrics.SelectionsActive.Inc()
	defer s.metrics.SelectionsActive.Dec()

	alerts := &alertCollector{}
	sess := s.newSession(alerts)

	reach := &domain.Feature{Type: domain.FeatureReach, ID: reachID}
	if !start.IsZero() || !end.IsZero() {
		sess.SetTimeWindow(c.Request.Context(), start, end)
	}
	if err := sess.LoadNodeProfile(c.Request.Context(), reach, variables, yvar); err != nil {
		s.respondError(c, err, alerts)
		return
	}
	if withStats {
		// Overlay failure still returns the observed profile.
		_ = sess.SetStatistics(c.Request.Context(), true)
	}

	c.JSON(http.StatusOK, gin.H{
		"reach_id": reachID,
		"datasets": sess.Datasets(),
		"alerts":   alerts.alerts,
	})
}

// handleStatistics aggregates posted cohort series into overlay datasets
// without any session state.
func (s *Server) handleStatistics(c *gin.Context) {
	if s.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "statistics service not configured"})
		return
	}

	var req struct {
		Series [][]domain.Measurement `json:"series"`
		YVar   string                 `json:"yvar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Series) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "series is required"})
		return
	}
	if req.YVar == "" {
		req.YVar = "wse"
	}

	result, err := s.stats.ComputeNodeSeries(c.Request.Context(), req.Series)
	if err != nil {
		s.metrics.StatisticsRequests.WithLabelValues("error").Inc()
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	s.metrics.StatisticsRequests.WithLabelValues("success").Inc()

	c.JSON(http.StatusOK, gin.H{
		"datasets": session.BuildOverlaySeries(result, req.YVar),
	})
}

func parseFeature(c *gin.Context) (*domain.Feature, error) {
	id := c.Query("feature_id")
	if id == "" {
		return nil, fmt.Errorf("feature_id is required")
	}

	var ft domain.FeatureType
	switch strings.ToLower(c.DefaultQuery("feature", "reach")) {
	case "reach":
		ft = domain.FeatureReach
	case "node":
		ft = domain.FeatureNode
	case "priorlake", "lake":
		ft = domain.FeaturePriorLake
	default:
		return nil, fmt.Errorf("invalid feature type %q", c.Query("feature"))
	}

	return &domain.Feature{Type: ft, ID: id, Name: c.Query("name")}, nil
}

func parseVariables(c *gin.Context) []string {
	raw := c.Query("variables")
	if raw == "" {
		return domain.DefaultVariables()
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	var start, end time.Time
	if v := c.Query("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_time: %w", err)
		}
		start = t.UTC()
	}
	if v := c.Query("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_time: %w", err)
		}
		end = t.UTC()
	}
	return start, end, nil
}

// parseQuality reads the accepted quality flags, e.g. "quality=0,1". A nil
// return means the default screen applies.
func parseQuality(c *gin.Context) (map[int]bool, error) {
	raw := c.Query("quality")
	if raw == "" {
		return nil, nil
	}
	accepted := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < domain.QualityGood || n > domain.QualityBad {
			return nil, fmt.Errorf("invalid quality flag %q", part)
		}
		accepted[n] = true
	}
	return accepted, nil
}
