package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"scholar-export/config"
	"scholar-export/services"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logging, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	stack, err := services.NewStack(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to set up search stack", zap.Error(err))
	}
	logging.Info("Search provider loaded",
		zap.String("provider", stack.Pipeline.Provider.Name()),
		zap.Int("max_results", cfg.MaxResults),
		zap.Duration("lookup_cache_ttl", cfg.LookupCacheTTL))

	// Setup Cron
	cronScheduler := cron.New()
	if _, err := stack.Health.Schedule(cronScheduler, cfg.HealthcheckSchedule); err != nil {
		logging.Fatal("Invalid HEALTHCHECK_SCHEDULE", zap.Error(err))
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()
	go stack.Health.CheckAll(context.Background())

	if gin.Mode() == gin.DebugMode {
		logging.Debug("Gin runs in debug mode.")
	}
	router := setupRouter(cfg, stack, logging)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Der Suchlauf ist per SEARCH_TIMEOUT begrenzt, die Antwort braucht etwas Luft dahinter.
		WriteTimeout:      cfg.SearchTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", zap.Error(err))
	}
}
