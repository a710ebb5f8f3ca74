// Package forecast fits an ordinary-least-squares trend line to an
// observation series and projects it forward with a symmetric 95%
// confidence band derived from the residual standard error.
package forecast

import (
	"math"

	"devdash/internal/model"
)

// MinObservations is the smallest series a fit is attempted on. With
// exactly 3 points the residual divisor (n-2) is 1.
const MinObservations = 3

// zScore95 is the fixed two-sided 95% z-score. A t-distribution
// correction would widen the band for small n; the dashboard uses the
// plain z-score.
const zScore95 = 1.96

// Fit is a least-squares line fitted to (year, value) pairs.
type Fit struct {
	Slope     float64
	Intercept float64
	StdError  float64 // residual standard error over the historical fit
	LastYear  int
	N         int
}

// FitSeries fits a trend line to the series. ok is false when the
// series has fewer than MinObservations points or all years are
// identical (zero variance, so the slope is undefined).
func FitSeries(series model.Series) (Fit, bool) {
	n := len(series)
	if n < MinObservations {
		return Fit{}, false
	}

	// Normalize a copy; callers may hand us a cached series.
	cp := make(model.Series, n)
	copy(cp, series)
	series = cp.Normalize()
	n = len(series)
	if n < MinObservations {
		// Duplicate-year collapse can shrink the series below the minimum.
		return Fit{}, false
	}

	var sumX, sumY float64
	for _, obs := range series {
		sumX += float64(obs.Year)
		sumY += obs.Value
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for _, obs := range series {
		dx := float64(obs.Year) - meanX
		num += dx * (obs.Value - meanY)
		den += dx * dx
	}
	if den == 0 {
		return Fit{}, false
	}

	slope := num / den
	intercept := meanY - slope*meanX

	var ssr float64
	for _, obs := range series {
		resid := obs.Value - (slope*float64(obs.Year) + intercept)
		ssr += resid * resid
	}
	stdErr := math.Sqrt(ssr / float64(n-2))

	return Fit{
		Slope:     slope,
		Intercept: intercept,
		StdError:  stdErr,
		LastYear:  series[n-1].Year,
		N:         n,
	}, true
}

// Predict evaluates the fitted line at the given year. Pure linear
// extrapolation with no damping or clamping, so percentages can leave
// [0,100].
func (f Fit) Predict(year int) float64 {
	return f.Slope*float64(year) + f.Intercept
}

// Forecast projects horizon future years beyond the last observed
// year. Returns (nil, false) for insufficient or degenerate input;
// callers show "not enough data", not an error. horizon <= 0 yields an
// empty (non-nil) slice with ok=true.
func Forecast(series model.Series, horizon int) ([]model.ForecastPoint, bool) {
	fit, ok := FitSeries(series)
	if !ok {
		return nil, false
	}

	points := make([]model.ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		year := fit.LastYear + i
		pred := fit.Predict(year)
		band := zScore95 * fit.StdError
		points = append(points, model.ForecastPoint{
			Year:       year,
			Predicted:  pred,
			LowerBound: pred - band,
			UpperBound: pred + band,
		})
	}
	return points, true
}
