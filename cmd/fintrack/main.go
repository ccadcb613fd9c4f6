package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	logger.Info("Starting fintrack API server")

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
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions: services.NewTransactionService(deps),
		Budgets:      services.NewBudgetService(deps),
		Bills:        services.NewBillService(deps),
		Goals:        services.NewGoalService(deps),
		Dashboard:    services.NewDashboardService(deps),
	}, logger, apphttp.Options{
		RateLimitRPM: cfg.RateLimitRPM,
		CacheTTL:     cfg.CacheTTL,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := cli.SignalContext()
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
