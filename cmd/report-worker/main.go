package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"hearth/internal/amqp"
	"hearth/internal/config"
	"hearth/internal/log"
	"hearth/internal/mail"
	"hearth/internal/storage"
	"hearth/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: "report-worker"})
	log.SetDefault(logger)

	logger.Info("Starting report-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, cfg.AMQPDigestQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// SMTP is optional: without it digests are dropped with a warning
	// while exports keep working.
	var mailer worker.DigestSender
	if cfg.SMTPHost != "" {
		m, err := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		if err != nil {
			logger.Error("Failed to initialize mailer", "error", err)
			os.Exit(1)
		}
		defer m.Close()
		mailer = m
		logger.Info("Mailer initialized", "smtp_host", cfg.SMTPHost)
	} else {
		logger.Info("SMTP disabled, digests will be dropped")
	}

	rw := worker.NewReportWorker(store, mailer, cfg.ExportDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeExports(gctx, func(msg *amqp.ExportJobMessage) error {
			return rw.HandleExport(gctx, msg)
		})
	})

	g.Go(func() error {
		return amqpClient.ConsumeDigests(gctx, func(msg *amqp.DigestMessage) error {
			return rw.HandleDigest(gctx, msg)
		})
	})

	// Daily check for the monthly digest fanout.
	g.Go(func() error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		if err := rw.EnqueueMonthlyDigests(gctx, amqpClient, cfg.DigestDayOfMonth, time.Now()); err != nil {
			logger.Error("Digest fanout failed", "error", err)
		}
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case now := <-ticker.C:
				if err := rw.EnqueueMonthlyDigests(gctx, amqpClient, cfg.DigestDayOfMonth, now); err != nil {
					logger.Error("Digest fanout failed", "error", err)
				}
			}
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Worker context cancelled")
	}

	logger.Info("Shutting down report-worker...")
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Report-worker shutdown complete")
}
