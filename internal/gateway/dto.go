package gateway

import "devdash/internal/model"

// LatestOut is the REST response type for /api/latest.
type LatestOut struct {
	Country   string  `json:"country"`
	Indicator string  `json:"indicator"`
	Value     float64 `json:"value"`
	Year      int     `json:"year"`
	Available bool    `json:"available"`
}

// ForecastSummary mirrors the dashboard's prediction summary panel:
// current value, projected value and the percent change between them.
type ForecastSummary struct {
	LatestActual  float64 `json:"latest_actual"`
	LatestYear    int     `json:"latest_year"`
	Projected     float64 `json:"projected"`
	ProjectedYear int     `json:"projected_year"`
	ChangePct     float64 `json:"change_pct"`
	Trend         string  `json:"trend"` // "increasing", "decreasing", "flat"
}

// ForecastOut is the REST response type for /api/forecast. Points is
// null when the series has insufficient or degenerate data, and callers
// branch on that, not on an HTTP error.
type ForecastOut struct {
	Country    string                `json:"country"`
	Indicator  string                `json:"indicator"`
	Horizon    int                   `json:"horizon"`
	Historical model.Series          `json:"historical"`
	Points     []model.ForecastPoint `json:"forecast"`
	Summary    *ForecastSummary      `json:"summary,omitempty"`
}
