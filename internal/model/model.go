// Package model defines the core data types shared across the dashboard
// backend: observations, series, and forecast points.
package model

import (
	"encoding/json"
	"sort"
)

// Observation is a single (year, value) data point for one country and
// indicator. Value is always a real number; records with null or
// non-numeric values are dropped at the ingest boundary, never stored.
type Observation struct {
	Year        int     `json:"year"`
	Value       float64 `json:"value"`
	CountryName string  `json:"country"`
	CountryCode string  `json:"country_code"` // ISO3, e.g. "NGA"
}

// Series is an ordered sequence of observations for a single
// (country, indicator) query, ascending by year.
type Series []Observation

// Normalize sorts the series ascending by year and collapses duplicate
// years. The upstream API may return revised records for the same year;
// the last-seen record wins, since providers list the most recent
// revision last.
func (s Series) Normalize() Series {
	if len(s) == 0 {
		return s
	}
	sort.SliceStable(s, func(i, j int) bool { return s[i].Year < s[j].Year })

	out := s[:0]
	for _, obs := range s {
		if n := len(out); n > 0 && out[n-1].Year == obs.Year {
			out[n-1] = obs
			continue
		}
		out = append(out, obs)
	}
	return out
}

// Latest returns the observation with the greatest year.
// ok is false for an empty series.
func (s Series) Latest() (obs Observation, ok bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	latest := s[0]
	for _, o := range s[1:] {
		if o.Year > latest.Year {
			latest = o
		}
	}
	return latest, true
}

// JSON returns the JSON-encoded series (ignoring errors for hot-path usage).
func (s Series) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}

// ForecastPoint is one projected future year with its 95% confidence band.
type ForecastPoint struct {
	Year       int     `json:"year"`
	Predicted  float64 `json:"predicted"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}
