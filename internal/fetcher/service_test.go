package fetcher

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"devdash/internal/cache"
	"devdash/internal/model"
	"devdash/internal/worldbank"
)

// fakeClient serves canned series keyed by country and counts calls.
type fakeClient struct {
	calls  int64
	series map[string]model.Series
	err    error
}

func (f *fakeClient) GetIndicator(_ context.Context, country, _ string, _, _ int) (model.Series, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.series[country], nil
}

func ngaSeries() model.Series {
	return model.Series{
		{Year: 2018, Value: 397.2, CountryName: "Nigeria", CountryCode: "NGA"},
		{Year: 2019, Value: 448.1, CountryName: "Nigeria", CountryCode: "NGA"},
		{Year: 2020, Value: 432.3, CountryName: "Nigeria", CountryCode: "NGA"},
	}
}

func kenSeries() model.Series {
	return model.Series{
		{Year: 2019, Value: 100.4, CountryName: "Kenya", CountryCode: "KEN"},
		{Year: 2020, Value: 101.0, CountryName: "Kenya", CountryCode: "KEN"},
	}
}

func TestFetch_CacheHitIdempotence(t *testing.T) {
	fc := &fakeClient{series: map[string]model.Series{"NGA": ngaSeries()}}
	svc := New(fc, cache.NewMemory(time.Hour), nil)
	ctx := context.Background()

	first := svc.Fetch(ctx, "NGA", "NY.GDP.MKTP.CD", 2015, 2025)
	second := svc.Fetch(ctx, "NGA", "NY.GDP.MKTP.CD", 2015, 2025)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %v vs %v", first, second)
	}
	if n := atomic.LoadInt64(&fc.calls); n != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", n)
	}
}

func TestFetch_DifferentRangeMisses(t *testing.T) {
	fc := &fakeClient{series: map[string]model.Series{"NGA": ngaSeries()}}
	svc := New(fc, cache.NewMemory(time.Hour), nil)
	ctx := context.Background()

	svc.Fetch(ctx, "NGA", "NY.GDP.MKTP.CD", 2015, 2025)
	svc.Fetch(ctx, "NGA", "NY.GDP.MKTP.CD", 2010, 2025)

	if n := atomic.LoadInt64(&fc.calls); n != 2 {
		t.Errorf("expected 2 upstream calls for distinct ranges, got %d", n)
	}
}

func TestFetch_UpstreamErrorYieldsEmptySeries(t *testing.T) {
	fc := &fakeClient{err: &worldbank.FetchError{Kind: worldbank.KindTimeout}}
	svc := New(fc, cache.NewMemory(time.Hour), nil)

	series := svc.Fetch(context.Background(), "NGA", "X", 2000, 2020)
	if series == nil {
		t.Fatal("expected empty series, got nil")
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %v", series)
	}
}

func TestFetch_ErrorNotCached(t *testing.T) {
	// A failed fetch must not poison the cache: the next call retries.
	fc := &fakeClient{err: &worldbank.FetchError{Kind: worldbank.KindTransport}}
	svc := New(fc, cache.NewMemory(time.Hour), nil)
	ctx := context.Background()

	svc.Fetch(ctx, "NGA", "X", 2000, 2020)
	fc.err = nil
	fc.series = map[string]model.Series{"NGA": ngaSeries()}

	series := svc.Fetch(ctx, "NGA", "X", 2000, 2020)
	if len(series) != 3 {
		t.Errorf("expected retry to succeed with 3 observations, got %v", series)
	}
	if n := atomic.LoadInt64(&fc.calls); n != 2 {
		t.Errorf("expected 2 upstream calls, got %d", n)
	}
}

func TestFetchMulti_ConcatenationOrder(t *testing.T) {
	fc := &fakeClient{series: map[string]model.Series{
		"NGA": ngaSeries(),
		"KEN": kenSeries(),
	}}
	svc := New(fc, cache.NewMemory(time.Hour), nil)
	ctx := context.Background()

	combined := svc.FetchMulti(ctx, []string{"KEN", "ZZZ", "NGA"}, "NY.GDP.MKTP.CD", 2015, 2025)

	// Equivalent to fetch(KEN) + fetch(NGA), in supplied order; ZZZ
	// has no data and contributes nothing.
	want := append(append(model.Series{}, kenSeries()...), ngaSeries()...)
	if !reflect.DeepEqual(combined, want) {
		t.Errorf("wrong concatenation:\n got %v\nwant %v", combined, want)
	}
}

func TestLatest_SkipsToGreatestYear(t *testing.T) {
	fc := &fakeClient{series: map[string]model.Series{"NGA": {
		{Year: 2015, Value: 48.0, CountryName: "Nigeria", CountryCode: "NGA"},
		{Year: 2019, Value: 55.3, CountryName: "Nigeria", CountryCode: "NGA"},
	}}}
	svc := New(fc, cache.NewMemory(time.Hour), nil)
	svc.SetClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })

	value, year, ok := svc.Latest(context.Background(), "NGA", "SL.UEM.TOTL.ZS", 10)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if value != 55.3 || year != 2019 {
		t.Errorf("expected (55.3, 2019), got (%v, %d)", value, year)
	}
}

func TestLatest_AbsentSentinel(t *testing.T) {
	fc := &fakeClient{series: map[string]model.Series{}}
	svc := New(fc, cache.NewMemory(time.Hour), nil)

	value, year, ok := svc.Latest(context.Background(), "NGA", "X", 10)
	if ok {
		t.Fatal("expected ok=false for empty series")
	}
	if value != 0 || year != 0 {
		t.Errorf("expected zero sentinels, got (%v, %d)", value, year)
	}
}

func TestLatest_LookbackWindow(t *testing.T) {
	var gotStart, gotEnd int
	probe := clientFunc(func(ctx context.Context, country, ind string, start, end int) (model.Series, error) {
		gotStart, gotEnd = start, end
		return nil, nil
	})
	svc := New(probe, cache.NewMemory(time.Hour), nil)
	svc.SetClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })

	svc.Latest(context.Background(), "NGA", "X", 7)
	if gotStart != 2018 || gotEnd != 2025 {
		t.Errorf("expected window 2018..2025, got %d..%d", gotStart, gotEnd)
	}
}

// clientFunc adapts a function to IndicatorClient.
type clientFunc func(ctx context.Context, country, ind string, start, end int) (model.Series, error)

func (f clientFunc) GetIndicator(ctx context.Context, country, ind string, start, end int) (model.Series, error) {
	return f(ctx, country, ind, start, end)
}
