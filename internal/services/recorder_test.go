package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hishab/internal/core"
	"hishab/internal/store/memory"
)

var testRoster = core.Roster{"Sayeed", "Saklain", "Shishir", "Farhan"}

func newTestRecorder(policy Policy) (*Recorder, *memory.Store) {
	st := memory.New()
	r := NewRecorder(st, st, testRoster, policy)
	r.now = func() time.Time {
		return time.Date(2026, 8, 15, 13, 30, 0, 0, time.UTC)
	}
	return r, st
}

func TestRecordMealDuplicateRejectedForMember(t *testing.T) {
	r, st := newTestRecorder(Policy{})
	ctx := context.Background()

	if _, err := r.RecordMeal(ctx, "Sayeed", "5", core.RoleMember); err != nil {
		t.Fatalf("first RecordMeal: %v", err)
	}

	_, err := r.RecordMeal(ctx, "Sayeed", "3", core.RoleMember)
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.PriorCount != 5 {
		t.Errorf("expected prior count 5 in error, got %g", dup.PriorCount)
	}

	meals, _ := st.ListMeals(ctx)
	if len(meals) != 1 || meals[0].Count != 5 {
		t.Fatalf("store must be unchanged after rejected duplicate, got %+v", meals)
	}
}

func TestRecordMealAdminOverwrites(t *testing.T) {
	r, st := newTestRecorder(Policy{})
	ctx := context.Background()

	if _, err := r.RecordMeal(ctx, "Sayeed", "5", core.RoleMember); err != nil {
		t.Fatalf("first RecordMeal: %v", err)
	}
	if _, err := r.RecordMeal(ctx, "Sayeed", "7", core.RoleAdmin); err != nil {
		t.Fatalf("admin overwrite: %v", err)
	}

	meals, _ := st.ListMeals(ctx)
	if len(meals) != 1 {
		t.Fatalf("expected exactly one entry after overwrite, got %d", len(meals))
	}
	if meals[0].Count != 7 {
		t.Errorf("expected stored count 7, got %g", meals[0].Count)
	}
}

func TestRecordMealValidation(t *testing.T) {
	r, st := newTestRecorder(Policy{})
	ctx := context.Background()

	cases := []struct {
		name   string
		member string
		count  string
	}{
		{"zero count", "Sayeed", "0"},
		{"negative count", "Sayeed", "-2"},
		{"not a number", "Sayeed", "five"},
		{"unknown member", "Rakib", "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.RecordMeal(ctx, tc.member, tc.count, core.RoleMember)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	meals, _ := st.ListMeals(ctx)
	if len(meals) != 0 {
		t.Fatalf("rejected writes must not mutate store, got %+v", meals)
	}
}

func TestRecordMealFractionalCount(t *testing.T) {
	r, st := newTestRecorder(Policy{})

	if _, err := r.RecordMeal(context.Background(), "Saklain", "1,5", core.RoleMember); err != nil {
		t.Fatalf("RecordMeal: %v", err)
	}
	meals, _ := st.ListMeals(context.Background())
	if meals[0].Count != 1.5 {
		t.Errorf("expected count 1.5, got %g", meals[0].Count)
	}
}

func TestRecordExpenseClassifiesFromNote(t *testing.T) {
	r, st := newTestRecorder(Policy{})
	ctx := context.Background()

	if _, err := r.RecordExpense(ctx, "Sayeed", "250.50", "weekly bazar", "", core.RoleMember); err != nil {
		t.Fatalf("RecordExpense market: %v", err)
	}
	if _, err := r.RecordExpense(ctx, "Saklain", "80", "wifi bill", "", core.RoleMember); err != nil {
		t.Fatalf("RecordExpense utility: %v", err)
	}

	expenses, _ := st.ListExpenses(ctx)
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}
	if expenses[0].Category != core.Market {
		t.Errorf("expected Market for bazar note, got %s", expenses[0].Category)
	}
	if expenses[0].Amount.Cents != 25050 {
		t.Errorf("expected 25050 cents, got %d", expenses[0].Amount.Cents)
	}
	if expenses[1].Category != core.Utility {
		t.Errorf("expected Utility for wifi note, got %s", expenses[1].Category)
	}
}

func TestRecordExpenseExplicitOverrideWins(t *testing.T) {
	r, st := newTestRecorder(Policy{})

	// Note says utility but the caller pins Market.
	if _, err := r.RecordExpense(context.Background(), "Sayeed", "40", "gas cylinder", core.Market, core.RoleMember); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}
	expenses, _ := st.ListExpenses(context.Background())
	if expenses[0].Category != core.Market {
		t.Errorf("explicit category must win over note, got %s", expenses[0].Category)
	}
}

func TestRecordExpensePolicyGate(t *testing.T) {
	r, st := newTestRecorder(Policy{ExpenseAdminOnly: true})
	ctx := context.Background()

	_, err := r.RecordExpense(ctx, "Saklain", "100", "bazar", "", core.RoleMember)
	if !errors.Is(err, ErrExpenseNotAllowed) {
		t.Fatalf("expected ErrExpenseNotAllowed, got %v", err)
	}
	if _, err := r.RecordExpense(ctx, "Sayeed", "100", "bazar", "", core.RoleAdmin); err != nil {
		t.Fatalf("admin write should pass: %v", err)
	}

	expenses, _ := st.ListExpenses(ctx)
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
}

func TestRecordExpenseInvalidAmount(t *testing.T) {
	r, _ := newTestRecorder(Policy{})

	for _, amount := range []string{"0", "-5", "abc", ""} {
		if _, err := r.RecordExpense(context.Background(), "Sayeed", amount, "bazar", "", core.RoleMember); !IsValidation(err) {
			t.Errorf("amount %q: expected validation error, got %v", amount, err)
		}
	}
}
