package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"rcrao/internal/amqp"
	"rcrao/internal/cli"
	apphttp "rcrao/internal/http"
	"rcrao/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("rcrao")

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.InitBackend(context.Background(), logger, cfg)

	var opts []services.Option

	// Report events are optional; the server works without a broker.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, report events disabled", "error", err)
			amqpClient = nil
		} else {
			amqpClient.SetEventsRoutingKey(cfg.AMQPEventsRoutingKey)
			opts = append(opts, services.WithEvents(amqpClient))
			logger.Info("AMQP client initialized - publishing report events",
				"exchange", cfg.AMQPExchange,
				"routing_key", cfg.AMQPEventsRoutingKey)
		}
	} else {
		logger.Info("AMQP disabled - report events will not be published")
	}

	svc := cli.NewReportService(cfg, res, opts...)

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		OrgName:        cfg.ReportOrgName,
		RateLimit:      cfg.ReportRateLimit,
		TrustedProxies: cfg.TrustedProxyList(),
		Ready:          apphttp.ReadyFunc(res.Ready),
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second // yearly reports can take a while
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting rcrao server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
