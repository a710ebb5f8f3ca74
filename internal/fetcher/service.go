// Package fetcher is the read-through cached fetch layer between the
// gateway and the World Bank API. All failure paths degrade to an empty
// series: the dashboard shows "no data" rather than an error page. The
// typed upstream failure is still logged and counted so operators can
// tell a quiet indicator from a broken service.
package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"devdash/internal/cache"
	"devdash/internal/metrics"
	"devdash/internal/model"
	"devdash/internal/worldbank"

	"golang.org/x/sync/singleflight"
)

// DefaultLookbackYears is the window Latest scans for the most recent
// observation.
const DefaultLookbackYears = 10

// IndicatorClient is the upstream API surface the service needs.
// *worldbank.Client satisfies it; tests substitute a fake.
type IndicatorClient interface {
	GetIndicator(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) (model.Series, error)
}

// Service wraps an IndicatorClient with a TTL cache and single-flight
// de-duplication of concurrent misses.
type Service struct {
	client IndicatorClient
	store  cache.Store
	m      *metrics.Metrics
	group  singleflight.Group
	now    func() time.Time
}

// New creates a fetch service. m may be nil (tests).
func New(client IndicatorClient, store cache.Store, m *metrics.Metrics) *Service {
	return &Service{
		client: client,
		store:  store,
		m:      m,
		now:    time.Now,
	}
}

// SetClock overrides the time source used by Latest. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Fetch returns the series for one country, indicator and inclusive
// year range. Cache hit within TTL: stored series, no network call.
// Miss or expiry: one upstream fetch (concurrent callers for the same
// key share it), stored on success. Any upstream failure yields an
// empty series, never an error.
func (s *Service) Fetch(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) model.Series {
	if s.m != nil {
		s.m.FetchesTotal.Inc()
	}

	key := cache.Key{
		CountryCode:   countryCode,
		IndicatorCode: indicatorCode,
		StartYear:     startYear,
		EndYear:       endYear,
	}
	if series, ok := s.store.Get(ctx, key); ok {
		if s.m != nil {
			s.m.CacheHits.Inc()
		}
		return series
	}
	if s.m != nil {
		s.m.CacheMisses.Inc()
	}

	v, _, _ := s.group.Do(key.String(), func() (interface{}, error) {
		return s.fetchUpstream(ctx, key), nil
	})
	return v.(model.Series)
}

// fetchUpstream performs the actual API call and stores the result.
// Failures are coalesced into an empty series here, at the boundary.
func (s *Service) fetchUpstream(ctx context.Context, key cache.Key) model.Series {
	start := time.Now()
	series, err := s.client.GetIndicator(ctx, key.CountryCode, key.IndicatorCode, key.StartYear, key.EndYear)
	if s.m != nil {
		s.m.UpstreamDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		kind := worldbank.KindTransport
		var fe *worldbank.FetchError
		if errors.As(err, &fe) {
			kind = fe.Kind
		}
		if s.m != nil {
			s.m.UpstreamErrors.WithLabelValues(string(kind)).Inc()
		}
		slog.Warn("upstream fetch failed",
			"country", key.CountryCode,
			"indicator", key.IndicatorCode,
			"kind", string(kind),
			"err", err)
		return model.Series{}
	}

	s.store.Set(ctx, key, series)
	return series
}

// FetchMulti fetches each country independently through the single-
// country path and concatenates the non-empty results in the order the
// codes were supplied. A country with no data contributes nothing.
func (s *Service) FetchMulti(ctx context.Context, countryCodes []string, indicatorCode string, startYear, endYear int) model.Series {
	var combined model.Series
	for _, code := range countryCodes {
		series := s.Fetch(ctx, code, indicatorCode, startYear, endYear)
		if len(series) == 0 {
			continue
		}
		combined = append(combined, series...)
	}
	return combined
}

// Latest returns the most recent observation within the lookback
// window. ok is false when no data is available.
func (s *Service) Latest(ctx context.Context, countryCode, indicatorCode string, lookbackYears int) (value float64, year int, ok bool) {
	if lookbackYears <= 0 {
		lookbackYears = DefaultLookbackYears
	}
	currentYear := s.now().Year()
	series := s.Fetch(ctx, countryCode, indicatorCode, currentYear-lookbackYears, currentYear)
	obs, ok := series.Latest()
	if !ok {
		return 0, 0, false
	}
	return obs.Value, obs.Year, true
}
