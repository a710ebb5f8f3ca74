package gateway

import (
	"bytes"
	"context"
	"log"
	"strings"
	"time"

	"devdash/internal/catalog"
)

// Refresher re-fetches every watched (country, indicator) pair each
// interval and broadcasts series that changed. Because the fetch path
// is the TTL-cached one, running the refresher at the cache TTL means
// each cycle pulls fresh data exactly once and WS clients see updates
// without polling.
type Refresher struct {
	svc       SeriesService
	hub       *Hub
	interval  time.Duration
	startYear int

	// last pushed payload per channel, to suppress no-op broadcasts
	lastSent map[string][]byte
}

// NewRefresher creates a refresher over the given fetch service and hub.
func NewRefresher(svc SeriesService, hub *Hub, interval time.Duration, startYear int) *Refresher {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Refresher{
		svc:       svc,
		hub:       hub,
		interval:  interval,
		startYear: startYear,
		lastSent:  make(map[string][]byte),
	}
}

// Run refreshes watched channels on a ticker. Blocks until ctx done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

func (r *Refresher) refreshAll(ctx context.Context) {
	channels := r.hub.WatchedChannels()
	if len(channels) == 0 {
		return
	}
	log.Printf("[refresher] refreshing %d watched channels", len(channels))

	endYear := time.Now().Year()
	for _, ch := range channels {
		country, indicatorKey, ok := parseChannel(ch)
		if !ok {
			continue
		}
		code := indicatorKey
		if ind, found := catalog.Lookup(indicatorKey); found {
			code = ind.Code
		}

		series := r.svc.Fetch(ctx, country, code, r.startYear, endYear)
		if len(series) == 0 {
			continue // no data is not worth a push
		}

		payload := series.JSON()
		if prev, sent := r.lastSent[ch]; sent && bytes.Equal(prev, payload) {
			continue
		}
		r.lastSent[ch] = payload
		r.hub.Broadcast(ch, payload)
	}
}

// parseChannel splits "series:NGA:gdp" into its country and indicator.
func parseChannel(channel string) (country, indicator string, ok bool) {
	parts := strings.SplitN(channel, ":", 3)
	if len(parts) != 3 || parts[0] != "series" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
