package export

import (
	"context"
	"fmt"
	"log/slog"

	"hearth/internal/amqp"
	"hearth/internal/core"
	"hearth/internal/storage"
)

// Worker pushes settled transactions from SQLite to the spreadsheet.
type Worker struct {
	storage   *storage.SQLiteRepository
	writer    RowWriter
	batchSize int
}

func NewWorker(storage *storage.SQLiteRepository, writer RowWriter, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Worker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP.
func (w *Worker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	slog.InfoContext(ctx, "Processing export message", "transaction_id", msg.TransactionID)

	t, err := w.storage.GetTransaction(ctx, msg.TransactionID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	names, err := w.accountNames(ctx)
	if err != nil {
		return err
	}

	return w.exportOne(ctx, t, names)
}

// ProcessPending exports any transactions the message path missed.
// This is a backup mechanism in case AMQP messages are lost.
func (w *Worker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	names, err := w.accountNames(ctx)
	if err != nil {
		return err
	}

	for _, t := range pending {
		if err := w.exportOne(ctx, t, names); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", t.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck drains the pending queue once with a larger batch so the
// worker recovers from downtime without waiting for the next tick.
func (w *Worker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.ListUnexported(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unexported transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	names, err := w.accountNames(ctx)
	if err != nil {
		return err
	}

	exported := 0
	failed := 0
	for _, t := range pending {
		if err := w.exportOne(ctx, t, names); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"id", t.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)

	return nil
}

func (w *Worker) exportOne(ctx context.Context, t core.Transaction, accountNames map[string]string) error {
	ref, err := w.writer.Append(ctx, t, accountNames[t.AccountID])
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkExported(ctx, []string{t.ID}); err != nil {
		slog.ErrorContext(ctx, "Failed to mark transaction as exported", "id", t.ID, "error", err)
		// The row landed on the sheet, so keep going.
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", t.ID,
		"sheet_ref", ref,
		"description", t.Description)

	return nil
}

func (w *Worker) accountNames(ctx context.Context) (map[string]string, error) {
	accounts, err := w.storage.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names, nil
}
