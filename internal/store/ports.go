package store

import (
	"context"

	"hishab/internal/core"
)

// Ports for the Event Store collaborator. Memory, SQLite and Google Sheets
// adapters all satisfy the same contract; the core never knows which one is
// behind it.
type (
	MealReader interface {
		ListMeals(ctx context.Context) ([]core.MealEntry, error)
		// FindMeal returns the entry for (member, day), or nil when none exists.
		FindMeal(ctx context.Context, member string, day core.Date) (*core.MealEntry, error)
	}

	MealWriter interface {
		// UpsertMeal inserts or overwrites the entry keyed by (member, day).
		UpsertMeal(ctx context.Context, e core.MealEntry) (ref string, err error)
	}

	ExpenseReader interface {
		ListExpenses(ctx context.Context) ([]core.ExpenseEntry, error)
	}

	ExpenseWriter interface {
		// AppendExpense is insert-only; expenses are never deduplicated.
		AppendExpense(ctx context.Context, e core.ExpenseEntry) (ref string, err error)
	}

	// Resetter clears both collections irrecoverably. Callers must obtain
	// explicit confirmation before invoking it.
	Resetter interface {
		ResetAll(ctx context.Context) error
	}

	MealStore interface {
		MealReader
		MealWriter
	}

	ExpenseStore interface {
		ExpenseReader
		ExpenseWriter
	}
)
