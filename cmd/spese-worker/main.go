package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
	"expensetracker/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap(applog.ComponentWorker)
	if err != nil {
		logger = cli.SetupLogger(nil, applog.ComponentWorker)
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting spese-worker", applog.FieldOperation, applog.OpStartup)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.OpenStore(bcfg)
	if err != nil {
		logger.Error("Failed to open store", applog.FieldError, err, "backend", bcfg.Type.String())
		os.Exit(1)
	}
	defer store.Close()

	mirror, err := backend.NewMirror(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize expense mirror", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.MirrorEnabled() {
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewMirrorWorker(store, mirror, logger)

	g, gctx := errgroup.WithContext(ctx)
	// RunPeriodic syncs once immediately, covering events missed while down.
	g.Go(func() error {
		return w.RunPeriodic(gctx, cfg.MirrorInterval)
	})

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		client = client.WithLogger(logger)
		defer client.Close()

		g.Go(func() error {
			return client.Consume(gctx, w.HandleEvent)
		})
	} else {
		logger.Info("AMQP disabled - mirroring on the periodic schedule only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
}
