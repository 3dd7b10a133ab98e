// cmd/server is the long-running HTTP API process. It replaces the
// source's FastAPI lifespan context manager with an explicit
// build-then-defer-Close sequence around the container (spec §9: Go has
// no literal "lifespan" construct; the container's constructor/Close
// pair plays that role), grounded on unified-rag-service/main.go's
// main()-time wiring plus graceful-shutdown-on-signal idiom.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"legal-rag-service/internal/config"
	"legal-rag-service/internal/container"
	"legal-rag-service/internal/httpapi"
	"legal-rag-service/internal/observability/tracing"
)

func main() {
	os.Exit(run())
}

func run() int {
	settings := config.Load()

	logger, err := config.NewLogger(settings.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "legal-rag-service")
	if err != nil {
		logger.Warn("tracing init failed, continuing without traces", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	c, err := container.Build(ctx, settings, logger, shutdownTracing)
	if err != nil {
		logger.Error("failed to build container", zap.Error(err))
		return 1
	}
	defer c.Close(context.Background())

	server := httpapi.NewServer(c)
	httpServer := &http.Server{
		Addr:    ":" + envOrDefault("PORT", "8080"),
		Handler: server.Engine(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return 1
	}
	return 0
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
