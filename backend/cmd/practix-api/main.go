package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/practix/practix/backend/internal/router"
	"github.com/practix/practix/backend/internal/setup"
	"github.com/practix/practix/shared/config"
	"github.com/practix/practix/shared/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to setup dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()

	deps.Dispatcher.Start(context.Background())
	defer deps.Dispatcher.Close()

	srv := &http.Server{
		Addr:              cfg.Public.HttpAddr,
		Handler:           router.New(deps.Handler, deps.AuthMiddleware, cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown waits for handlers; notification streams only end when their feed does
	srv.RegisterOnShutdown(deps.Broker.Close)

	go func() {
		logger.Log.Info("server started", "addr", cfg.Public.HttpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
}
