// Command mockhydrocron serves a synthetic HydroCron-compatible timeseries
// endpoint for local development and integration testing. Responses are
// deterministic per feature id, so repeated queries (and cache behavior) can
// be exercised without touching the real PO.DAAC service.
//
// Usage:
//
//	go run ./cmd/mockhydrocron -addr :9090
//	HYDROCRON_URL=http://localhost:9090/hydrocron/v1/timeseries go run ./cmd/swotvisd
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/swotvis/swot-data-service/internal/domain"
	"github.com/swotvis/swot-data-service/internal/observability"
)

// passInterval approximates the SWOT revisit cadence over a mid-latitude reach.
const passInterval = 11 * 24 * time.Hour

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := observability.NewLogger(*logLevel, "text")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /hydrocron/v1/timeseries", func(w http.ResponseWriter, r *http.Request) {
		handleTimeseries(w, r, logger)
	})

	logger.Info("mock hydrocron listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleTimeseries(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	q := r.URL.Query()
	featureID := q.Get("feature_id")
	if featureID == "" || q.Get("feature") == "" {
		http.Error(w, "400: feature and feature_id are required", http.StatusBadRequest)
		return
	}

	start, err := parseTime(q.Get("start_time"), domain.MissionEpoch)
	if err != nil {
		http.Error(w, "400: invalid start_time", http.StatusBadRequest)
		return
	}
	end, err := parseTime(q.Get("end_time"), time.Now().UTC())
	if err != nil {
		http.Error(w, "400: invalid end_time", http.StatusBadRequest)
		return
	}

	fields := strings.Split(q.Get("fields"), ",")
	obs := generate(featureID, start, end, fields)
	if len(obs) == 0 {
		// The real service answers 400 when nothing matches.
		http.Error(w, "400: results with the specified search parameters were not found", http.StatusBadRequest)
		return
	}

	logger.Info("serving synthetic series",
		"feature_id", featureID, "observations", len(obs), "fields", q.Get("fields"))

	if q.Get("output") == "csv" {
		writeResponse(w, map[string]any{
			"status": "200 OK",
			"hits":   len(obs),
			"results": map[string]any{
				"csv":     toCSV(fields, obs),
				"geojson": map[string]any{"type": "FeatureCollection", "features": []any{}},
			},
		})
		return
	}

	compact := q.Get("compact") != "false"
	var features []map[string]any
	if compact {
		features = []map[string]any{{
			"type":       "Feature",
			"properties": toColumns(fields, obs),
		}}
	} else {
		for _, o := range obs {
			features = append(features, map[string]any{
				"type":       "Feature",
				"properties": o,
			})
		}
	}

	writeResponse(w, map[string]any{
		"status": "200 OK",
		"time":   123.4,
		"hits":   len(obs),
		"results": map[string]any{
			"csv": "",
			"geojson": map[string]any{
				"type":     "FeatureCollection",
				"features": features,
			},
		},
	})
}

// generate produces one observation per satellite pass over [start, end],
// seeded by the feature id so every request for the same feature agrees.
func generate(featureID string, start, end time.Time, fields []string) []map[string]string {
	h := fnv.New64a()
	h.Write([]byte(featureID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	baseWSE := 50 + rng.Float64()*500
	baseWidth := 80 + rng.Float64()*400
	distOut := 1e5 + rng.Float64()*3e6

	var obs []map[string]string
	for t := domain.MissionEpoch.Add(time.Duration(rng.Intn(240)) * time.Hour); t.Before(end); t = t.Add(passInterval) {
		// Jitter within the pass so node cohort grouping has drift to chew on.
		at := t.Add(time.Duration(rng.Intn(90)) * time.Second)
		if at.Before(start) {
			continue
		}

		row := map[string]string{}
		for _, f := range fields {
			switch f {
			case "time_str":
				if rng.Float64() < 0.03 {
					row[f] = "no_data"
				} else {
					row[f] = at.UTC().Format("2006-01-02T15:04:05Z")
				}
			case "wse":
				row[f] = sample(rng, baseWSE, 2.5)
			case "slope":
				row[f] = sample(rng, 1e-4, 5e-5)
			case "width":
				row[f] = sample(rng, baseWidth, 15)
			case "area_total":
				row[f] = sample(rng, baseWidth*1000, 5000)
			case "d_x_area":
				row[f] = sample(rng, 0, 40)
			case "dschg_c":
				row[f] = sample(rng, 800, 120)
			case "p_dist_out":
				row[f] = strconv.FormatFloat(distOut, 'f', 1, 64)
			case "reach_q", "node_q", "quality_f":
				row[f] = strconv.Itoa(qualityFlag(rng))
			}
		}
		obs = append(obs, row)
	}
	return obs
}

// sample draws a noisy value, occasionally replaced by the fill sentinel the
// way real granules carry missing observations.
func sample(rng *rand.Rand, base, spread float64) string {
	if rng.Float64() < 0.05 {
		return strconv.FormatFloat(domain.FillValue, 'f', 1, 64)
	}
	v := base + (rng.Float64()*2-1)*spread
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func qualityFlag(rng *rand.Rand) int {
	r := rng.Float64()
	switch {
	case r < 0.70:
		return domain.QualityGood
	case r < 0.88:
		return domain.QualitySuspect
	case r < 0.96:
		return domain.QualityDegraded
	default:
		return domain.QualityBad
	}
}

// toColumns pivots row-major observations into the compact columnar shape.
func toColumns(fields []string, obs []map[string]string) map[string]any {
	cols := make(map[string]any, len(fields))
	for _, f := range fields {
		col := make([]string, len(obs))
		for i, o := range obs {
			col[i] = o[f]
		}
		cols[f] = col
	}
	return cols
}

func toCSV(fields []string, obs []map[string]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(fields, ","))
	b.WriteByte('\n')
	for _, o := range obs {
		vals := make([]string, len(fields))
		for i, f := range fields {
			vals[i] = o[f]
		}
		b.WriteString(strings.Join(vals, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func parseTime(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeResponse(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Fprintln(os.Stderr, "encode response:", err)
	}
}
