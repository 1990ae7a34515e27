package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"presupuesto/internal/amqp"
	"presupuesto/internal/backend"
	"presupuesto/internal/cli"
	"presupuesto/internal/config"
	"presupuesto/internal/log"
	"presupuesto/internal/store"
	"presupuesto/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")).WithComponent(log.ComponentWorker)
	logger.Info("Starting presupuesto-worker", log.FieldOperation, log.OpStartup)

	cfg, err := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)
	if err != nil {
		os.Exit(1)
	}

	if err := run(logger, cfg); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(logger *log.Logger, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The source is read directly; its writes are already published by
	// whoever made them.
	sourceCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	source, err := cli.InitBackend(ctx, logger, sourceCfg.WithType(sourceCfg.Type))
	if err != nil {
		return err
	}
	defer source.Cleanup()

	target, err := cli.InitBackend(ctx, logger, sourceCfg.WithType(backend.BackendType(cfg.MirrorBackend)))
	if err != nil {
		return err
	}
	defer target.Cleanup()

	logger.Info("Backends initialized",
		"source", cfg.DataBackend,
		"mirror", cfg.MirrorBackend)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		return err
	}
	defer client.Close()

	mirror := worker.NewMirrorWorker(target.Adapter)

	sigCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) { cancel() })

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := client.Consume(gctx, mirror.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if users, ok := source.Adapter.(store.UserLister); ok && cfg.ReconcileInterval > 0 {
		g.Go(func() error {
			reconcile := func() {
				if _, err := mirror.Reconcile(gctx, source.Adapter, users); err != nil && gctx.Err() == nil {
					logger.Error("Reconcile failed", log.FieldError, err)
				}
			}
			// Catch up on anything missed while the worker was down.
			reconcile()

			ticker := time.NewTicker(cfg.ReconcileInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					reconcile()
				}
			}
		})
	} else {
		logger.Info("Periodic reconcile disabled", log.FieldBackend, cfg.DataBackend)
	}

	err = g.Wait()
	cancel()
	if sigCtx.Err() != nil {
		<-done
	}
	return err
}
