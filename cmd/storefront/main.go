package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-storefront/pkg/di"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	ctx := context.Background()
	container, err := di.NewContainerFromEnv(ctx, []string{".env"}, di.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build storefront", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	srv := &http.Server{
		Addr:         container.Config().HTTPAddr,
		Handler:      container.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	stats := container.CacheService().Stats()
	logger.Info("server exited", "cache_hits", stats.Hits, "cache_misses", stats.Misses)
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("STOREFRONT_LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
