package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hearth/internal/amqp"
	"hearth/internal/config"
	"hearth/internal/export"
	"hearth/internal/storage"
	"hearth/internal/tracker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting export-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Export worker requires GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := export.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	worker := export.NewWorker(repo, sheetsClient, cfg.ExportBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Drain anything that accumulated while the worker was down.
	if err := worker.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
		// Don't exit - the periodic pass will retry
	}

	// Consume change notifications so exports follow writes closely (optional).
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange,
			cfg.ChangesQueue, cfg.ExportQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on periodic export only", "error", err)
		} else {
			defer amqpClient.Close()

			go func() {
				err := amqpClient.Consume(ctx, cfg.ChangesQueue, func(ctx context.Context, body []byte) error {
					msg, err := amqp.ChangeMessageFromJSON(body)
					if err != nil {
						return err
					}
					if msg.Collection != tracker.CollectionTransactions {
						return nil
					}
					return worker.ProcessPending(ctx)
				})
				if err != nil && err != context.Canceled {
					logger.Error("Change consumption failed", "error", err)
				}
			}()

			// Directly addressed export requests, e.g. manual re-exports.
			go func() {
				err := amqpClient.Consume(ctx, cfg.ExportQueue, func(ctx context.Context, body []byte) error {
					msg, err := amqp.ExportMessageFromJSON(body)
					if err != nil {
						return err
					}
					return worker.HandleExportMessage(ctx, msg)
				})
				if err != nil && err != context.Canceled {
					logger.Error("Export consumption failed", "error", err)
				}
			}()
		}
	} else {
		logger.Info("AMQP disabled - exporting on the periodic interval only")
	}

	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down export-worker")
			return
		case <-ticker.C:
			if err := worker.ProcessPending(ctx); err != nil {
				logger.Error("Periodic export failed", "error", err)
			}
		}
	}
}
