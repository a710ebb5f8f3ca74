package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devdash/config"
	"devdash/internal/cache"
	"devdash/internal/catalog"
	"devdash/internal/fetcher"
	"devdash/internal/gateway"
	"devdash/internal/logger"
	"devdash/internal/metrics"
	"devdash/internal/worldbank"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	logger.Init("dashd", slog.LevelInfo)
	slog.Info("starting",
		"gateway_addr", cfg.GatewayAddr,
		"cache_backend", cfg.CacheBackend,
		"cache_ttl", cfg.CacheTTL.String(),
		"home_country", cfg.HomeCountry)

	m := metrics.NewMetrics()

	var store cache.Store
	switch cfg.CacheBackend {
	case "redis":
		rs, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			log.Fatalf("[dashd] redis cache init failed: %v", err)
		}
		defer rs.Close()
		store = rs
	default:
		store = cache.NewMemory(cfg.CacheTTL)
	}

	client := worldbank.New(worldbank.Config{
		BaseURL: cfg.WBBaseURL,
		Timeout: cfg.FetchTimeout,
		PerPage: cfg.WBPerPage,
	})
	svc := fetcher.New(client, store, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pre-warm the cache with the data the dashboard renders first: every
	// catalog indicator for the home country, plus GDP for the comparison set.
	go func() {
		endYear := time.Now().Year()
		for _, ind := range catalog.All() {
			svc.Fetch(ctx, cfg.HomeCountry, ind.Code, 2000, endYear)
		}
		if gdp, ok := catalog.Lookup("gdp"); ok {
			for _, country := range cfg.ComparisonCountries {
				svc.Fetch(ctx, country, gdp.Code, 2000, endYear)
			}
		}
		slog.Info("cache pre-warm complete", "home_country", cfg.HomeCountry)
	}()

	hub := gateway.NewHub(m)
	refresher := gateway.NewRefresher(svc, hub, cfg.RefreshInterval, 2000)
	go refresher.Run(ctx)

	gw := &gateway.Gateway{
		Svc:          svc,
		Hub:          hub,
		M:            m,
		ProcessStart: time.Now(),
	}
	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)

	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			log.Printf("[dashd] metrics server stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.GatewayAddr,
		Handler:      gateway.WithRequestLogging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway listening", "addr", cfg.GatewayAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[dashd] server error: %v", err)
	}
}
