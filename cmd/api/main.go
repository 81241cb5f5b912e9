package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/storyreelhq/storyreel/internal/adapters/http"
	"github.com/storyreelhq/storyreel/internal/adapters/ws"
	"github.com/storyreelhq/storyreel/internal/bootstrap"
	"github.com/storyreelhq/storyreel/internal/config"
	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/observability/logging"
	"github.com/storyreelhq/storyreel/internal/observability/metrics"
)

const serviceName = "storyreel-api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	hub := ws.NewHub(app.TaskUC, logger)
	go func() {
		err := app.Queue.SubscribeProgress(ctx, func(_ context.Context, task *domain.GenerationTask) {
			hub.TaskProgress(task)
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("progress subscription failed", "error", err)
		}
	}()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(
		app.AuthUC,
		app.IngestUC,
		app.ProjectUC,
		app.ContentUC,
		app.GenerationUC,
		app.TaskUC,
		app.CredentialUC,
		app.Exporter,
		hub,
		httpMetrics,
		httpadapter.RouterConfig{
			Service:       serviceName,
			RateLimitRPS:  cfg.APIRateLimitRPS,
			RateBurst:     cfg.APIRateLimitBurst,
			MaxConcurrent: cfg.APIMaxConcurrent,
			AssetsDir:     cfg.StoragePath,
		},
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
