package services

import (
	"context"
	"fmt"
	"log/slog"

	"hishab/internal/core"
	"hishab/internal/storage"
)

// SyncPublisher publishes an entry sync request to the message broker.
type SyncPublisher interface {
	PublishEntrySync(ctx context.Context, kind string, id int64) error
}

// EntryService writes entries to SQLite and notifies the sync worker over
// AMQP. It satisfies the store writer ports, so the Recorder can sit on top
// of it unchanged. Publish failures never fail the request; the startup sync
// check picks up rows the broker missed.
type EntryService struct {
	repo      *storage.Repository
	publisher SyncPublisher
}

func NewEntryService(repo *storage.Repository, publisher SyncPublisher) *EntryService {
	return &EntryService{repo: repo, publisher: publisher}
}

func (s *EntryService) UpsertMeal(ctx context.Context, e core.MealEntry) (string, error) {
	ref, err := s.repo.UpsertMeal(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save meal: %w", err)
	}
	s.publishSync(ctx, ref)
	return ref, nil
}

func (s *EntryService) AppendExpense(ctx context.Context, e core.ExpenseEntry) (string, error) {
	ref, err := s.repo.AppendExpense(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}
	s.publishSync(ctx, ref)
	return ref, nil
}

func (s *EntryService) publishSync(ctx context.Context, ref string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "ref", ref)
		return
	}

	kind, id, err := storage.ParseRef(ref)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse entry ref", "ref", ref, "error", err)
		return
	}
	if err := s.publisher.PublishEntrySync(ctx, kind, id); err != nil {
		// Local write succeeded; the row stays pending until the worker
		// catches up via ProcessPendingEntries.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"kind", kind, "id", id, "error", err)
	}
}
