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
	"hearth/internal/reminders"
	"hearth/internal/storage"
	"hearth/internal/tracker"
)

type scheduledCheck struct {
	name   string
	hour   int
	minute int
	check  reminders.Check
}

// nextFireTime returns the next wall-clock occurrence of hh:mm after now.
func nextFireTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting reminder-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("Reminder worker requires AMQP_URL to publish reminders")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.RemindersQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	morningHour, morningMinute, _ := config.ParseClock(cfg.MorningReminderAt)
	afternoonHour, afternoonMinute, _ := config.ParseClock(cfg.AfternoonReminderAt)

	checks := []scheduledCheck{
		{name: "morning", hour: morningHour, minute: morningMinute, check: reminders.MorningCheck},
		{name: "afternoon", hour: afternoonHour, minute: afternoonMinute, check: reminders.AfternoonCheck},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Reminder schedule configured",
		"morning", cfg.MorningReminderAt,
		"afternoon", cfg.AfternoonReminderAt)

	for {
		now := time.Now()

		// Pick the check that fires soonest.
		next := checks[0]
		fireAt := nextFireTime(now, next.hour, next.minute)
		for _, c := range checks[1:] {
			if at := nextFireTime(now, c.hour, c.minute); at.Before(fireAt) {
				next, fireAt = c, at
			}
		}

		timer := time.NewTimer(time.Until(fireAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Shutting down reminder-worker")
			return
		case <-timer.C:
		}

		if err := runCheck(ctx, repo, amqpClient, cfg.RemindersQueue, next); err != nil {
			logger.Error("Reminder check failed", "check", next.name, "error", err)
		}
	}
}

func runCheck(ctx context.Context, repo *storage.SQLiteRepository, client *amqp.Client, queue string, check scheduledCheck) error {
	snap, err := tracker.LoadSnapshot(ctx, repo)
	if err != nil {
		return err
	}

	due := reminders.Due(snap, time.Now(), check.check)
	if len(due) == 0 {
		slog.InfoContext(ctx, "No reminders due", "check", check.name)
		return nil
	}

	for _, msg := range due {
		if err := client.Publish(ctx, queue, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"check", check.name,
				"item_id", msg.ItemID,
				"error", err)
			continue
		}
		slog.InfoContext(ctx, "Reminder published",
			"check", check.name,
			"kind", msg.Kind,
			"item_id", msg.ItemID,
			"description", msg.Description)
	}
	return nil
}
