// Package worldbank implements the HTTP client for the World Bank v2
// indicator API. It parses the two-element JSON payload (pagination
// metadata, then records), validates each record against a strict schema
// and returns a normalized, year-sorted series.
package worldbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"devdash/internal/model"
)

const (
	defaultBaseURL        = "https://api.worldbank.org/v2"
	defaultTimeoutSeconds = 10
	defaultUserAgent      = "devdash/0.1"

	// Large enough that annual series never paginate. If an indicator
	// somehow exceeds this, only the first page is read.
	defaultPerPage = 500
)

// Config configures the World Bank client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	PerPage   int
}

// ConfigFromEnv builds a Config from WB_* environment variables,
// falling back to defaults.
func ConfigFromEnv() Config {
	timeout := defaultTimeoutSeconds
	if v := os.Getenv("WB_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = n
		}
	}
	return Config{
		BaseURL:   getenv("WB_BASE_URL", defaultBaseURL),
		Timeout:   time.Duration(timeout) * time.Second,
		UserAgent: getenv("WB_USER_AGENT", defaultUserAgent),
	}
}

// Client fetches indicator observations over HTTP.
type Client struct {
	config Config
	client *http.Client
}

// New creates a Client with the given config, applying defaults for
// any zero fields.
func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// rawRecord is the strict intermediate schema for one upstream record.
// Value stays a *float64 so that null and non-numeric values are
// distinguishable from 0; both cause the record to be dropped.
type rawRecord struct {
	Date    string   `json:"date"`
	Value   *float64 `json:"value"`
	ISO3    string   `json:"countryiso3code"`
	Country struct {
		Value string `json:"value"`
	} `json:"country"`
}

// GetIndicator fetches observations for one country, indicator and
// inclusive year range. The returned series is sorted ascending by year
// with duplicate years collapsed (last record wins). Errors are typed
// *FetchError values.
func (c *Client) GetIndicator(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) (model.Series, error) {
	u := fmt.Sprintf("%s/country/%s/indicator/%s", c.config.BaseURL,
		url.PathEscape(countryCode), url.PathEscape(indicatorCode))

	params := url.Values{}
	params.Set("format", "json")
	params.Set("date", fmt.Sprintf("%d:%d", startYear, endYear))
	params.Set("per_page", strconv.Itoa(c.config.PerPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: KindStatus, Status: resp.StatusCode}
	}

	// Payload shape: [ {metadata...}, [ {record}, ... ] ]
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Kind: KindParse, Err: err}
	}
	if len(payload) < 2 {
		return nil, &FetchError{Kind: KindParse, Err: fmt.Errorf("expected 2 payload elements, got %d", len(payload))}
	}

	// Decode records one by one: a single bad record (e.g. a string
	// where a number belongs) drops that record, not the whole series.
	var rawRecords []json.RawMessage
	if err := json.Unmarshal(payload[1], &rawRecords); err != nil {
		return nil, &FetchError{Kind: KindParse, Err: err}
	}

	series := make(model.Series, 0, len(rawRecords))
	for _, raw := range rawRecords {
		var rec rawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		obs, ok := admit(rec, startYear, endYear)
		if !ok {
			continue // partial records are dropped, never propagated
		}
		series = append(series, obs)
	}
	return series.Normalize(), nil
}

// admit validates a raw record against the schema: value must be a JSON
// number (string values are NOT coerced), and date, country name and
// ISO3 code must all be present. The year must parse and fall inside
// the requested range.
func admit(rec rawRecord, startYear, endYear int) (model.Observation, bool) {
	if rec.Value == nil || rec.Date == "" || rec.ISO3 == "" || rec.Country.Value == "" {
		return model.Observation{}, false
	}
	year, err := strconv.Atoi(rec.Date)
	if err != nil || year < startYear || year > endYear {
		return model.Observation{}, false
	}
	return model.Observation{
		Year:        year,
		Value:       *rec.Value,
		CountryName: rec.Country.Value,
		CountryCode: rec.ISO3,
	}, true
}

// classifyTransport splits request errors into timeout vs transport.
func classifyTransport(err error) *FetchError {
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: KindTransport, Err: err}
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
