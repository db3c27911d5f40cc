package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hishab/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testMeal(member string, count float64) core.MealEntry {
	return core.MealEntry{
		Member:     member,
		Count:      count,
		Day:        core.DateOf(time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)),
		RecordedAt: time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertMealReplacesByMemberAndDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.UpsertMeal(ctx, testMeal("Sayeed", 5)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := repo.UpsertMeal(ctx, testMeal("Sayeed", 7)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	meals, err := repo.ListMeals(ctx)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal after upsert, got %d", len(meals))
	}
	if meals[0].Count != 7 {
		t.Errorf("expected count 7, got %g", meals[0].Count)
	}
}

func TestFindMealMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.FindMeal(context.Background(), "Sayeed", core.DateOf(time.Now()))
	if err != nil {
		t.Fatalf("FindMeal: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing entry, got %+v", got)
	}
}

func TestAppendExpenseAllowsDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := core.ExpenseEntry{
		Member:     "Saklain",
		Amount:     core.Money{Cents: 25000},
		Note:       "weekly bazar",
		Category:   core.Market,
		Day:        core.DateOf(time.Now()),
		RecordedAt: time.Now(),
	}
	for i := 0; i < 2; i++ {
		if _, err := repo.AppendExpense(ctx, e); err != nil {
			t.Fatalf("AppendExpense %d: %v", i, err)
		}
	}

	expenses, err := repo.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}
}

func TestInvalidEntriesAreRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bad := testMeal("", 5)
	if _, err := repo.UpsertMeal(ctx, bad); err == nil {
		t.Fatal("expected error for empty member")
	}
	meals, err := repo.ListMeals(ctx)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("invalid write must not mutate store, got %d meals", len(meals))
	}
}

func TestResetAllClearsBothTables(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.UpsertMeal(ctx, testMeal("Sayeed", 3)); err != nil {
		t.Fatalf("UpsertMeal: %v", err)
	}
	if _, err := repo.AppendExpense(ctx, core.ExpenseEntry{
		Member:     "Sayeed",
		Amount:     core.Money{Cents: 100},
		Category:   core.Utility,
		Day:        core.DateOf(time.Now()),
		RecordedAt: time.Now(),
	}); err != nil {
		t.Fatalf("AppendExpense: %v", err)
	}

	if err := repo.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}

	meals, _ := repo.ListMeals(ctx)
	expenses, _ := repo.ListExpenses(ctx)
	if len(meals) != 0 || len(expenses) != 0 {
		t.Fatalf("expected empty store after reset, got %d meals %d expenses", len(meals), len(expenses))
	}
}

func TestSyncBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.UpsertMeal(ctx, testMeal("Shishir", 2)); err != nil {
		t.Fatalf("UpsertMeal: %v", err)
	}

	pending, err := repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].Kind != KindMeal {
		t.Fatalf("expected one pending meal, got %+v", pending)
	}

	if err := repo.MarkSynced(ctx, KindMeal, pending[0].ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending after mark: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending entries, got %+v", pending)
	}

	// Overwriting the meal resets the synced flag.
	if _, err := repo.UpsertMeal(ctx, testMeal("Shishir", 4)); err != nil {
		t.Fatalf("UpsertMeal overwrite: %v", err)
	}
	pending, err = repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending after overwrite: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected overwrite to re-queue sync, got %+v", pending)
	}
}

func TestGetMealByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ref, err := repo.UpsertMeal(ctx, testMeal("Farhan", 6))
	if err != nil {
		t.Fatalf("UpsertMeal: %v", err)
	}
	kind, id, err := ParseRef(ref)
	if err != nil {
		t.Fatalf("ParseRef(%q): %v", ref, err)
	}
	if kind != KindMeal {
		t.Fatalf("expected kind %q, got %q", KindMeal, kind)
	}

	got, err := repo.GetMeal(ctx, id)
	if err != nil {
		t.Fatalf("GetMeal: %v", err)
	}
	if got.Member != "Farhan" || got.Count != 6 {
		t.Errorf("unexpected meal %+v", got)
	}
}
