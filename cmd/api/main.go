package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/studybrain/internal/api"
	"github.com/nikhilbhutani/studybrain/internal/api/handlers"
	"github.com/nikhilbhutani/studybrain/internal/app"
	"github.com/nikhilbhutani/studybrain/internal/config"
	"github.com/nikhilbhutani/studybrain/internal/guardrails"
	"github.com/nikhilbhutani/studybrain/internal/queue"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	services, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	checks := map[string]handlers.Pinger{"database": services.DB}
	if services.Cache != nil {
		checks["redis"] = services.Cache
	}

	deps := api.Deps{
		Documents: services.DocSvc,
		Ingester:  services.Ingester,
		Linker:    services.Linker,
		Chat:      services.Chat,
		Tutor:     services.Tutor,
		Guard:     guardrails.DefaultPipeline(cfg.Server.MaxInputRunes),
		Usage:     services.Usage,
		Narrator:  services.Narrator,
		Checks:    checks,
	}
	if cfg.Queue.AsyncIngest {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		deps.Queue = qc
		slog.Info("ingestion handed to worker")
	}

	router := api.NewRouter(api.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	}, deps)
	handler := router.Setup()

	stopSweep := make(chan struct{})
	go router.RateLimiter().Sweep(stopSweep)
	defer close(stopSweep)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
