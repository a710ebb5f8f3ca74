package gateway

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"devdash/internal/catalog"
	"devdash/internal/forecast"
	"devdash/internal/logger"
	"devdash/internal/metrics"
	"devdash/internal/model"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

const (
	defaultStartYear = 2000
	defaultHorizon   = 5
	maxHorizon       = 10
)

// SeriesService is the fetch surface the gateway depends on.
// *fetcher.Service satisfies it; tests substitute a fake.
type SeriesService interface {
	Fetch(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) model.Series
	FetchMulti(ctx context.Context, countryCodes []string, indicatorCode string, startYear, endYear int) model.Series
	Latest(ctx context.Context, countryCode, indicatorCode string, lookbackYears int) (float64, int, bool)
}

// Gateway wires the HTTP/WS surface over the fetch service.
type Gateway struct {
	Svc          SeriesService
	Hub          *Hub
	M            *metrics.Metrics
	ProcessStart time.Time
}

// WithRequestLogging tags each request with a generated ID and logs
// method, path and duration on completion.
func WithRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRequestID(r.Context(), logger.GenerateRequestID("req", time.Now()))
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"dur_ms", time.Since(start).Milliseconds(),
		}
		slog.Info("request", append(args, logger.LogWithRequest(ctx)...)...)
	})
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	// WebSocket endpoint for live series refresh pushes
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		g.Hub.HandleWSRequest(conn)
	})

	// REST: indicator catalog
	mux.HandleFunc("/api/indicators", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, catalog.All())
	})

	// REST: comparison country set
	mux.HandleFunc("/api/countries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, catalog.Countries)
	})

	// REST: single-country series
	mux.HandleFunc("/api/series", func(w http.ResponseWriter, r *http.Request) {
		q, ok := parseSeriesQuery(w, r)
		if !ok {
			return
		}
		series := g.Svc.Fetch(r.Context(), q.country, q.indicatorCode, q.start, q.end)
		writeJSON(w, series)
	})

	// REST: multi-country series, concatenated in supplied order
	mux.HandleFunc("/api/series/multi", func(w http.ResponseWriter, r *http.Request) {
		q, ok := parseSeriesQuery(w, r)
		if !ok {
			return
		}
		countries := splitCodes(r.URL.Query().Get("countries"))
		if len(countries) == 0 {
			writeError(w, http.StatusBadRequest, "countries is required")
			return
		}
		series := g.Svc.FetchMulti(r.Context(), countries, q.indicatorCode, q.start, q.end)
		writeJSON(w, series)
	})

	// REST: most recent available value within the lookback window
	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		q, ok := parseSeriesQuery(w, r)
		if !ok {
			return
		}
		lookback := intParam(r, "lookback", 10)
		value, year, available := g.Svc.Latest(r.Context(), q.country, q.indicatorCode, lookback)
		writeJSON(w, LatestOut{
			Country:   q.country,
			Indicator: q.indicator,
			Value:     value,
			Year:      year,
			Available: available,
		})
	})

	// REST: trend forecast. Insufficient data is {"forecast": null},
	// not an HTTP error.
	mux.HandleFunc("/api/forecast", func(w http.ResponseWriter, r *http.Request) {
		q, ok := parseSeriesQuery(w, r)
		if !ok {
			return
		}
		horizon := intParam(r, "horizon", defaultHorizon)
		if horizon > maxHorizon {
			horizon = maxHorizon
		}

		series := g.Svc.Fetch(r.Context(), q.country, q.indicatorCode, q.start, q.end)
		out := ForecastOut{
			Country:    q.country,
			Indicator:  q.indicator,
			Horizon:    horizon,
			Historical: series,
		}
		if points, fitted := forecast.Forecast(series, horizon); fitted {
			if g.M != nil {
				g.M.ForecastsTotal.Inc()
			}
			out.Points = points
			out.Summary = buildSummary(series, points)
		} else if g.M != nil {
			g.M.ForecastsNoFit.Inc()
		}
		writeJSON(w, out)
	})

	// REST: CSV export of historical + forecast rows
	mux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		q, ok := parseSeriesQuery(w, r)
		if !ok {
			return
		}
		horizon := intParam(r, "horizon", defaultHorizon)
		if horizon > maxHorizon {
			horizon = maxHorizon
		}

		series := g.Svc.Fetch(r.Context(), q.country, q.indicatorCode, q.start, q.end)
		points, _ := forecast.Forecast(series, horizon)

		SetCORS(w)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", q.indicator+"_forecast.csv"))
		writeExportCSV(w, series, points)
	})

	// REST: system resource snapshot for the ops footer
	mux.HandleFunc("/api/system", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, CollectMetrics(g.ProcessStart, g.Hub.ClientCount()))
	})

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"status":     "ok",
			"ws_clients": g.Hub.ClientCount(),
			"uptime_sec": int64(time.Since(g.ProcessStart).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

// seriesQuery holds the parsed common query parameters.
type seriesQuery struct {
	country       string
	indicator     string // slug or raw code as supplied
	indicatorCode string // resolved World Bank code
	start, end    int
}

// parseSeriesQuery validates country/indicator/start/end. The
// indicator may be a catalog slug ("gdp_growth") or a raw World Bank
// code ("NY.GDP.MKTP.KD.ZG").
func parseSeriesQuery(w http.ResponseWriter, r *http.Request) (seriesQuery, bool) {
	country := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("country")))
	indicator := strings.TrimSpace(r.URL.Query().Get("indicator"))

	if country == "" && r.URL.Query().Get("countries") == "" {
		writeError(w, http.StatusBadRequest, "country is required")
		return seriesQuery{}, false
	}
	if indicator == "" {
		writeError(w, http.StatusBadRequest, "indicator is required")
		return seriesQuery{}, false
	}

	code := indicator
	if ind, ok := catalog.Lookup(indicator); ok {
		code = ind.Code
	} else if !strings.Contains(indicator, ".") {
		writeError(w, http.StatusBadRequest, "unknown indicator: "+indicator)
		return seriesQuery{}, false
	}

	start := intParam(r, "start", defaultStartYear)
	end := intParam(r, "end", time.Now().Year())
	if start > end {
		writeError(w, http.StatusBadRequest, "start must not exceed end")
		return seriesQuery{}, false
	}

	return seriesQuery{
		country:       country,
		indicator:     indicator,
		indicatorCode: code,
		start:         start,
		end:           end,
	}, true
}

// buildSummary computes the prediction summary panel values. A zero
// latest actual leaves the change percent at 0 rather than emitting
// +Inf, which JSON cannot carry.
func buildSummary(series model.Series, points []model.ForecastPoint) *ForecastSummary {
	latest, ok := series.Latest()
	if !ok || len(points) == 0 {
		return nil
	}
	last := points[len(points)-1]

	var changePct float64
	if latest.Value != 0 {
		changePct = (last.Predicted - latest.Value) / latest.Value * 100
	}
	trend := "flat"
	if changePct > 0 {
		trend = "increasing"
	} else if changePct < 0 {
		trend = "decreasing"
	}
	return &ForecastSummary{
		LatestActual:  latest.Value,
		LatestYear:    latest.Year,
		Projected:     last.Predicted,
		ProjectedYear: last.Year,
		ChangePct:     changePct,
		Trend:         trend,
	}
}

// writeExportCSV emits the download format the dashboard offers:
// historical rows carry Actual, forecast rows carry Predicted.
func writeExportCSV(w http.ResponseWriter, series model.Series, points []model.ForecastPoint) {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{"Year", "Actual", "Predicted", "Type"})
	for _, obs := range series {
		cw.Write([]string{
			strconv.Itoa(obs.Year),
			strconv.FormatFloat(obs.Value, 'f', -1, 64),
			"",
			"Historical",
		})
	}
	for _, p := range points {
		cw.Write([]string{
			strconv.Itoa(p.Year),
			"",
			strconv.FormatFloat(p.Predicted, 'f', -1, 64),
			"Forecast",
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func intParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// splitCodes parses "NGA,ZAF" into upper-cased ISO3 codes.
func splitCodes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		codes = append(codes, p)
	}
	return codes
}
