// Package worker mirrors locally recorded entries to the shared Google Sheet.
// The SQLite store is the write path; the sheet is the household's visible
// copy and lags by at most one sync cycle.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"hishab/internal/amqp"
	"hishab/internal/core"
	"hishab/internal/storage"
	"hishab/internal/store"
)

// SheetMirror is the subset of the sheet store the worker writes through.
type SheetMirror interface {
	store.MealWriter
	store.ExpenseWriter
}

type SyncWorker struct {
	storage   *storage.Repository
	sheet     SheetMirror
	batchSize int
}

func NewSyncWorker(repo *storage.Repository, sheet SheetMirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single entry sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"kind", msg.Kind,
		"id", msg.ID)

	return w.syncEntry(ctx, msg.Kind, msg.ID)
}

// ProcessPendingEntries syncs rows that never made it to the sheet. This is a
// backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	pending, err := w.storage.ListPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, p := range pending {
		if err := w.syncEntry(ctx, p.Kind, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "kind", p.Kind, "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog at worker startup. It recovers
// from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.syncEntry(ctx, p.Kind, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup",
				"kind", p.Kind, "id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncEntry(ctx context.Context, kind string, id int64) error {
	var (
		ref string
		err error
	)
	switch kind {
	case storage.KindMeal:
		var e core.MealEntry
		e, err = w.storage.GetMeal(ctx, id)
		if err != nil {
			return w.markLoadFailure(ctx, kind, id, err)
		}
		// Upsert keeps the sheet keyed by (member, day) too, so an admin
		// overwrite replaces the remote row instead of duplicating it.
		ref, err = w.sheet.UpsertMeal(ctx, e)
	case storage.KindExpense:
		var e core.ExpenseEntry
		e, err = w.storage.GetExpense(ctx, id)
		if err != nil {
			return w.markLoadFailure(ctx, kind, id, err)
		}
		ref, err = w.sheet.AppendExpense(ctx, e)
	default:
		return fmt.Errorf("unknown entry kind %q", kind)
	}

	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, kind, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "kind", kind, "id", id, "error", markErr)
		}
		return fmt.Errorf("mirror %s to sheet: %w", kind, err)
	}

	if err := w.storage.MarkSynced(ctx, kind, id); err != nil {
		// The sheet write actually worked; log and move on.
		slog.ErrorContext(ctx, "Failed to mark as synced", "kind", kind, "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced entry",
		"kind", kind,
		"id", id,
		"sheet_ref", ref)

	return nil
}

func (w *SyncWorker) markLoadFailure(ctx context.Context, kind string, id int64, err error) error {
	if markErr := w.storage.MarkSyncError(ctx, kind, id); markErr != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "kind", kind, "id", id, "error", markErr)
	}
	return fmt.Errorf("load %s from storage: %w", kind, err)
}
