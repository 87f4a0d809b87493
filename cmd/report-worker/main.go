package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"rcrao/internal/amqp"
	"rcrao/internal/cli"
	"rcrao/internal/services"
	"rcrao/internal/worker"
)

const readinessInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("report-worker")
	logger.Info("Starting report-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	}()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()
	amqpClient.SetEventsRoutingKey(cfg.AMQPEventsRoutingKey)

	svc := cli.NewReportService(cfg, res, services.WithEvents(amqpClient))
	reportWorker := worker.NewReportWorker(svc, cfg.ReportOutputDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeReportRequests(gctx, reportWorker.HandleRequest)
	})
	g.Go(func() error {
		ticker := time.NewTicker(readinessInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				logger.Info("Shutting down report-worker...")
				return nil
			case <-ticker.C:
				if res.Ready == nil {
					continue
				}
				if err := res.Ready(gctx); err != nil && gctx.Err() == nil {
					logger.Warn("Record store not ready, requests will be retried", "error", err)
				}
			}
		}
	})

	logger.Info("Report worker ready",
		"queue", cfg.AMQPQueue,
		"output_dir", cfg.ReportOutputDir,
		"backend", cfg.DataBackend)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Report worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Report-worker shutdown complete")
}
