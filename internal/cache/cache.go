// Package cache provides the TTL-bounded series cache behind the
// fetcher. The Store interface has two implementations: an in-process
// memory store (the default) and a Redis-backed store for multi-replica
// deployments. Neither is durable: entries live for one TTL and are
// gone on restart/expiry.
package cache

import (
	"context"
	"fmt"
	"time"

	"devdash/internal/model"
)

// DefaultTTL matches the dashboard's refresh economics: indicator data
// is annual, an hour of staleness is invisible.
const DefaultTTL = time.Hour

// Key identifies one cached series by the exact fetch argument tuple.
type Key struct {
	CountryCode   string
	IndicatorCode string
	StartYear     int
	EndYear       int
}

// String renders the key in a stable form usable as a Redis key.
func (k Key) String() string {
	return fmt.Sprintf("series:%s:%s:%d:%d", k.CountryCode, k.IndicatorCode, k.StartYear, k.EndYear)
}

// Store is a TTL key-value store for series. Implementations must be
// safe for concurrent use. Get returns ok=false for both missing and
// expired entries; there is no invalidation API beyond TTL expiry.
type Store interface {
	Get(ctx context.Context, key Key) (model.Series, bool)
	Set(ctx context.Context, key Key, series model.Series)
}
