package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"devdash/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis stores series as JSON values under TTL'd keys so multiple
// dashboard replicas share one cache. Redis expiry replaces the
// in-process clock check; a restart of Redis simply empties the cache,
// which the fetcher treats as a cold start.
type Redis struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis store and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log.Printf("[cache] redis connected at %s (ttl=%s)", cfg.Addr, ttl)
	return &Redis{client: client, ttl: ttl}, nil
}

// Get reads and decodes a cached series. Any Redis or decode error is
// treated as a miss and the fetcher simply re-fetches.
func (r *Redis) Get(ctx context.Context, key Key) (model.Series, bool) {
	val, err := r.client.Get(ctx, key.String()).Result()
	if err != nil {
		if err != goredis.Nil {
			log.Printf("[cache] redis get %s: %v", key, err)
		}
		return nil, false
	}
	var series model.Series
	if err := json.Unmarshal([]byte(val), &series); err != nil {
		log.Printf("[cache] redis decode %s: %v", key, err)
		return nil, false
	}
	return series, true
}

// Set writes the series with the configured TTL. Write failures are
// logged and swallowed: a missing cache entry costs one extra upstream
// call, never a request failure.
func (r *Redis) Set(ctx context.Context, key Key, series model.Series) {
	if err := r.client.Set(ctx, key.String(), series.JSON(), r.ttl).Err(); err != nil {
		log.Printf("[cache] redis set %s: %v", key, err)
	}
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error { return r.client.Close() }
