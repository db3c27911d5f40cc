package adapters

import (
	"context"
	"fmt"

	"hishab/internal/core"
	"hishab/internal/services"
	"hishab/internal/storage"
)

// SQLiteAdapter composes the repository's read side with the EntryService's
// write side into one Event Store. Handlers work unchanged against it while
// writes fan out to SQLite + AMQP.
type SQLiteAdapter struct {
	storage *storage.Repository
	service *services.EntryService
}

func NewSQLiteAdapter(repo *storage.Repository, service *services.EntryService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: repo,
		service: service,
	}
}

func (a *SQLiteAdapter) ListMeals(ctx context.Context) ([]core.MealEntry, error) {
	return a.storage.ListMeals(ctx)
}

func (a *SQLiteAdapter) FindMeal(ctx context.Context, member string, day core.Date) (*core.MealEntry, error) {
	return a.storage.FindMeal(ctx, member, day)
}

func (a *SQLiteAdapter) UpsertMeal(ctx context.Context, e core.MealEntry) (string, error) {
	return a.service.UpsertMeal(ctx, e)
}

func (a *SQLiteAdapter) ListExpenses(ctx context.Context) ([]core.ExpenseEntry, error) {
	return a.storage.ListExpenses(ctx)
}

func (a *SQLiteAdapter) AppendExpense(ctx context.Context, e core.ExpenseEntry) (string, error) {
	return a.service.AppendExpense(ctx, e)
}

func (a *SQLiteAdapter) ResetAll(ctx context.Context) error {
	if err := a.storage.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset sqlite store: %w", err)
	}
	return nil
}
