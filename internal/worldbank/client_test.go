package worldbank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	return c, srv
}

func TestGetIndicator_ParsesAndSorts(t *testing.T) {
	// Upstream lists most recent years first; the client must sort
	// ascending and keep only well-formed numeric records.
	payload := `[
		{"page":1,"pages":1,"per_page":500,"total":3},
		[
			{"date":"2021","value":430.0,"country":{"id":"NG","value":"Nigeria"},"countryiso3code":"NGA"},
			{"date":"2020","value":null,"country":{"id":"NG","value":"Nigeria"},"countryiso3code":"NGA"},
			{"date":"2019","value":448.1,"country":{"id":"NG","value":"Nigeria"},"countryiso3code":"NGA"}
		]
	]`
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expected format=json, got %q", r.URL.Query().Get("format"))
		}
		if r.URL.Query().Get("date") != "2015:2025" {
			t.Errorf("expected date=2015:2025, got %q", r.URL.Query().Get("date"))
		}
		w.Write([]byte(payload))
	})
	defer srv.Close()

	series, err := c.GetIndicator(context.Background(), "NGA", "NY.GDP.MKTP.CD", 2015, 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The null-valued 2020 record must be dropped.
	if len(series) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(series))
	}
	if series[0].Year != 2019 || series[1].Year != 2021 {
		t.Errorf("expected years [2019 2021], got [%d %d]", series[0].Year, series[1].Year)
	}
	if series[0].Value != 448.1 {
		t.Errorf("expected value 448.1, got %v", series[0].Value)
	}
	if series[0].CountryCode != "NGA" || series[0].CountryName != "Nigeria" {
		t.Errorf("country fields not carried: %+v", series[0])
	}
}

func TestGetIndicator_DropsMalformedRecords(t *testing.T) {
	// One record with a string value (not coerced), one missing the
	// ISO3 code, one missing the country name, one complete.
	payload := `[
		{"page":1},
		[
			{"date":"2018","value":"12.5","country":{"value":"Nigeria"},"countryiso3code":"NGA"},
			{"date":"2019","value":13.1,"country":{"value":"Nigeria"},"countryiso3code":""},
			{"date":"2020","value":14.2,"country":{"value":""},"countryiso3code":"NGA"},
			{"date":"2021","value":15.0,"country":{"value":"Nigeria"},"countryiso3code":"NGA"}
		]
	]`
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	})
	defer srv.Close()

	series, err := c.GetIndicator(context.Background(), "NGA", "SL.UEM.TOTL.ZS", 2015, 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected only the complete numeric record, got %d: %v", len(series), series)
	}
	if series[0].Year != 2021 || series[0].Value != 15.0 {
		t.Errorf("wrong surviving record: %+v", series[0])
	}
}

func TestGetIndicator_StatusError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := c.GetIndicator(context.Background(), "NGA", "X", 2000, 2020)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Kind != KindStatus || fe.Status != http.StatusBadGateway {
		t.Errorf("expected status error 502, got kind=%s status=%d", fe.Kind, fe.Status)
	}
}

func TestGetIndicator_MalformedPayload(t *testing.T) {
	cases := map[string]string{
		"not json":          `{{{`,
		"single element":    `[{"page":1}]`,
		"records not array": `[{"page":1}, {"oops":true}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			defer srv.Close()

			_, err := c.GetIndicator(context.Background(), "NGA", "X", 2000, 2020)
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %v", err)
			}
			if fe.Kind != KindParse {
				t.Errorf("expected parse error, got %s", fe.Kind)
			}
		})
	}
}

func TestGetIndicator_NullRecordList(t *testing.T) {
	// The API answers [metadata, null] for unknown indicators.
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"page":1}, null]`))
	})
	defer srv.Close()

	series, err := c.GetIndicator(context.Background(), "NGA", "BOGUS", 2000, 2020)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %v", series)
	}
}

func TestGetIndicator_Timeout(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	defer srv.Close()
	c.client.Timeout = 20 * time.Millisecond

	_, err := c.GetIndicator(context.Background(), "NGA", "X", 2000, 2020)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Kind != KindTimeout {
		t.Errorf("expected timeout kind, got %s", fe.Kind)
	}
}

func TestGetIndicator_YearOutsideRange(t *testing.T) {
	// Records outside the requested window are dropped even if the
	// upstream ignores the date filter.
	payload := `[
		{"page":1},
		[
			{"date":"1999","value":1.0,"country":{"value":"Nigeria"},"countryiso3code":"NGA"},
			{"date":"2010","value":2.0,"country":{"value":"Nigeria"},"countryiso3code":"NGA"},
			{"date":"not-a-year","value":3.0,"country":{"value":"Nigeria"},"countryiso3code":"NGA"}
		]
	]`
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	})
	defer srv.Close()

	series, err := c.GetIndicator(context.Background(), "NGA", "X", 2000, 2020)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 1 || series[0].Year != 2010 {
		t.Errorf("expected only the in-range 2010 record, got %v", series)
	}
}
