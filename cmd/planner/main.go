package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"csa/internal/cache"
	"csa/internal/config"
	"csa/internal/handler"
	"csa/internal/hub"
	"csa/internal/ingestor"
	"csa/internal/middleware"
	"csa/internal/query"
	"csa/internal/store"
	"csa/pkg/timetable"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting journey planner",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"timetable_path", cfg.TimetablePath,
		"timetable_url", cfg.TimetableURL,
		"redis_enabled", cfg.RedisEnabled,
	)

	var fetcher timetable.Fetcher
	if cfg.TimetablePath != "" {
		fetcher = timetable.FileFetcher{Path: cfg.TimetablePath}
	} else {
		fetcher = timetable.NewDownloader(cfg.TimetableURL, logger)
	}

	timetableStore := store.NewTimetableStore()
	ing := ingestor.NewTimetableIngestor(fetcher, timetableStore, cfg.TimetableCacheDir, cfg.TimetableUpdateInterval, logger)
	runner := query.NewRunner(timetableStore, logger)

	events := hub.NewHub(logger)

	var journeyCache *cache.JourneyCache
	var warmer *cache.JourneyWarmer
	if cfg.RedisEnabled {
		journeyCache, err = cache.NewJourneyCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, journeys will not be cached", "error", err)
			journeyCache = nil
		} else {
			defer journeyCache.Close()

			warmQueries, err := cache.ParseWarmQueries(cfg.WarmQueries)
			if err != nil {
				logger.Error("invalid CACHE_WARM_QUERIES", "error", err)
				os.Exit(1)
			}
			warmer = cache.NewJourneyWarmer(journeyCache, runner, warmQueries, logger)
		}
	}

	ing.SetOnUpdate(func(ctx context.Context, oldFingerprint, newFingerprint string) {
		if journeyCache != nil && oldFingerprint != "" {
			n, err := journeyCache.PurgeTimetable(ctx, oldFingerprint)
			if err != nil {
				logger.Warn("failed to purge stale journeys", "error", err)
			} else {
				logger.Info("purged stale journeys", "count", n)
			}
		}
		if warmer != nil {
			warmer.Warm(ctx, newFingerprint)
		}
		events.NotifyTimetableUpdate(newFingerprint, timetableStore.GetStats().Connections)
	})

	journeyHandler := handler.NewJourneyHandler(runner, timetableStore, journeyCache, logger)
	wsHandler := handler.NewWSHandler(journeyHandler, events, logger)
	healthHandler := handler.NewHealthHandler(ing, timetableStore)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)
	statsHandler := handler.NewStatsHandler(timetableStore, limiter)

	api := http.NewServeMux()
	api.Handle("GET /v1/journeys", limiter.Middleware(http.HandlerFunc(journeyHandler.GetJourney)))
	api.HandleFunc("GET /v1/stations", journeyHandler.ListStations)
	api.HandleFunc("GET /v1/timetable/stats", journeyHandler.GetStats)
	api.HandleFunc("GET /v1/stats", statsHandler.GetStats)
	api.HandleFunc("GET /healthz", healthHandler.Healthz)
	api.HandleFunc("GET /readyz", healthHandler.Readyz)

	mux := http.NewServeMux()
	mux.Handle("/", handler.GzipMiddleware(handler.CORSMiddleware(api)))
	// The websocket upgrade needs the raw writer, so it skips gzip.
	mux.Handle("/v1/ws", limiter.Middleware(http.HandlerFunc(wsHandler.ServeWS)))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.RequestIDMiddleware(handler.AccessLogMiddleware(logger)(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go events.Run(ctx)

	go ing.Start(ctx)

	go limiter.Run(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
