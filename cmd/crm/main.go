package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/minicrm/internal/crm/app"
	"github.com/gartstein/minicrm/internal/crm/config"
	"github.com/gartstein/minicrm/internal/crm/handlers"
	"github.com/gartstein/minicrm/internal/crm/logging"
	"github.com/gartstein/minicrm/internal/crm/telemetry"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{}).Fatal("failed to load config", zap.Error(err))
	}

	logger := logging.New(logging.Options{
		Development: cfg.IsDevelopment(),
		File:        cfg.LogFile,
	})
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.New(ctx, telemetry.Config{
		ServiceName: cfg.AppName,
		Endpoint:    cfg.TelemetryEndpoint,
		Insecure:    cfg.TelemetryInsecure,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}

	crm, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	crm.StartConsumer(ctx)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, crm.HTTPHandler(true), logger)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()
	logger.Info("Mini CRM started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("events", cfg.EventsDriver),
		zap.String("storage", cfg.StorageDriver),
	)

	waitForShutdown(server, serveErr, logger)

	cancel()
	crm.Close()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down telemetry", zap.Error(err))
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, or a
// server fails, then shuts down servers.
func waitForShutdown(server *handlers.Server, serveErr <-chan error, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
}
