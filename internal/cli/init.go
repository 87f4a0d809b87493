// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/rcrao, cmd/report-worker, and cmd/rcrao-report.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"rcrao/internal/backend"
	"rcrao/internal/composer"
	"rcrao/internal/config"
	"rcrao/internal/log"
	"rcrao/internal/pdf"
	"rcrao/internal/report"
	"rcrao/internal/services"
)

// SetupLogger initializes structured logging at the LOG_LEVEL level and
// tags every record with the binary's name. It sets the default logger.
func SetupLogger(service string) *slog.Logger {
	l := log.New(log.Config{
		Level:  log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Output: os.Stdout,
	})
	logger := l.Logger.With("service", service)
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the record store selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid backend configuration: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	return res, nil
}

// InitBackend opens the record store selected by DATA_BACKEND.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	res, err := OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewReportService wires the aggregation, presentation and PDF stages
// for the given record store.
func NewReportService(cfg *config.Config, res *backend.BackendResult, opts ...services.Option) *services.ReportService {
	pdfCfg := pdf.DefaultConfig()
	pdfCfg.Size = cfg.ReportPageSize
	pdfCfg.Orientation = cfg.ReportOrientation

	comp := composer.New(composer.Config{
		OrgName:    cfg.ReportOrgName,
		FilePrefix: cfg.ReportFilePrefix,
	}, pdf.Factory(pdfCfg, time.Now))

	return services.NewReportService(
		report.NewStoreAggregator(res.Store),
		comp,
		cfg.ReportCurrency,
		cfg.ReportGeneratedBy,
		opts...,
	)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
