package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2qar/trackmania-bot/internal/config"
	"github.com/2qar/trackmania-bot/internal/infrastructure/discord"
	"github.com/2qar/trackmania-bot/internal/infrastructure/nadeo"
	"github.com/2qar/trackmania-bot/internal/infrastructure/redis"
	"github.com/2qar/trackmania-bot/internal/metrics"
	"github.com/2qar/trackmania-bot/internal/pkg/logger"
	"github.com/2qar/trackmania-bot/internal/scheduler"
	"github.com/2qar/trackmania-bot/internal/service"
	"github.com/2qar/trackmania-bot/internal/totd"
	"github.com/2qar/trackmania-bot/internal/transport/rest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Logger.With().
		Str("service", "trackmania-bot").
		Str("env", cfg.AppEnv).
		Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Redis (rate limiting only; best-effort) ----
	cache := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		defer cancel()

		if err := cache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
	}

	// ---- Collaborators ----
	provider := nadeo.NewClient(cfg.NadeoLogin, cfg.NadeoPassword)
	messenger := discord.NewClient(cfg.DiscordAPIBase, cfg.DiscordBotToken)
	store := totd.NewStore(cfg.TOTDFile)
	m := metrics.NewCollector()

	svc := service.New(provider, messenger, store, cfg, m)

	// Warm the TOTD cache so the first /totd doesn't pay the fetch. Failure
	// is non-fatal; the cache recomputes on demand.
	{
		warmCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		defer cancel()

		if info, err := svc.WarmCache(warmCtx); err != nil {
			log.Warn().Err(err).Msg("totd cache warm failed (continuing)")
		} else {
			log.Info().Str("map", info.Name).Str("day", info.Day).Msg("totd cache warm")
		}
	}

	// ---- Daily post schedule ----
	sched, err := scheduler.New(cfg.TOTDCron, svc)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler create failed")
	}
	if err := sched.Start(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("scheduler start failed")
	}
	defer sched.Stop()

	// ---- Router ----
	httpHandler := rest.NewRouter(rest.RouterDeps{
		Handler:          rest.NewHandler(svc, cfg, m),
		Limiter:          cache,
		Metrics:          m.Handler(),
		RateLimitEnabled: cfg.RLEnabled,
		RateLimit:        cfg.RLLimit,
		RateLimitWindow:  cfg.RLWindow,
	})

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}
