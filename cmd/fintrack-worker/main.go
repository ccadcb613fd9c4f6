package main

import (
	"context"
	"errors"
	"os"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting fintrack worker")

	cfg := cli.LoadAndValidateConfig(logger)

	result, err := backend.NewFactory(logger).Create(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Storage cleanup failed", "error", err)
		}
	}()

	events := cli.SetupAMQP(cfg, logger)
	defer func() {
		if err := events.Close(); err != nil {
			logger.Error("AMQP close failed", "error", err)
		}
	}()

	deps := services.Deps{Store: result.Store}
	if events != nil {
		deps.Events = events
	}
	processor := services.NewRecurringProcessor(deps)
	w := worker.New(processor, cfg.WorkerInterval, logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
