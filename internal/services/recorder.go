package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hishab/internal/core"
	"hishab/internal/store"
)

// ErrExpenseNotAllowed is returned when expense writes are restricted to the
// admin role by policy and the caller is not admin.
var ErrExpenseNotAllowed = errors.New("expense entry restricted to admin")

// DuplicateError reports a meal entry that already exists for (member, day).
// It carries the previously recorded count so callers can show it to the user.
type DuplicateError struct {
	Member     string
	Day        core.Date
	PriorCount float64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("meal already logged for %s on %s (count %g)", e.Member, e.Day.Key(), e.PriorCount)
}

// Policy is injected write-permission configuration. The admin/member split is
// a trusted flag supplied per call, not a security boundary.
type Policy struct {
	// ExpenseAdminOnly gates expense writes to the admin role. The two
	// observed deployments disagree on this, so it is configuration.
	ExpenseAdminOnly bool
}

// Recorder validates and writes meal and expense entries into the Event Store.
type Recorder struct {
	meals    store.MealStore
	expenses store.ExpenseWriter
	roster   core.Roster
	policy   Policy

	// Serialises the find-then-upsert sequence so two concurrent writes for
	// the same (member, day) cannot both pass the existence check.
	mu sync.Mutex

	now func() time.Time
}

func NewRecorder(meals store.MealStore, expenses store.ExpenseWriter, roster core.Roster, policy Policy) *Recorder {
	return &Recorder{
		meals:    meals,
		expenses: expenses,
		roster:   roster,
		policy:   policy,
		now:      time.Now,
	}
}

// RecordMeal upserts today's meal count for a member. A second write for the
// same day fails with DuplicateError unless the caller holds the admin role,
// in which case the existing entry is overwritten in place.
func (r *Recorder) RecordMeal(ctx context.Context, member, count string, role core.Role) (core.MealEntry, error) {
	c, err := core.ParseMealCount(count)
	if err != nil {
		return core.MealEntry{}, err
	}
	if !r.roster.Contains(member) {
		return core.MealEntry{}, fmt.Errorf("%w: %s", core.ErrUnknownMember, member)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	today := core.DateOf(now)

	existing, err := r.meals.FindMeal(ctx, member, today)
	if err != nil {
		return core.MealEntry{}, fmt.Errorf("find meal entry: %w", err)
	}
	if existing != nil && !role.IsAdmin() {
		return core.MealEntry{}, &DuplicateError{Member: member, Day: today, PriorCount: existing.Count}
	}

	entry := core.MealEntry{Member: member, Count: c, Day: today, RecordedAt: now}
	ref, err := r.meals.UpsertMeal(ctx, entry)
	if err != nil {
		return core.MealEntry{}, fmt.Errorf("upsert meal entry: %w", err)
	}

	if existing != nil {
		slog.InfoContext(ctx, "Meal entry overwritten by admin",
			"member", member, "day", today.Key(), "prior_count", existing.Count, "count", c, "ref", ref)
	} else {
		slog.InfoContext(ctx, "Meal entry recorded",
			"member", member, "day", today.Key(), "count", c, "ref", ref)
	}
	return entry, nil
}

// RecordExpense appends an expense entry. The category comes from the explicit
// override when given, otherwise it is derived from the note text exactly once
// at creation time.
func (r *Recorder) RecordExpense(ctx context.Context, member, amount, note string, override core.Category, role core.Role) (core.ExpenseEntry, error) {
	if r.policy.ExpenseAdminOnly && !role.IsAdmin() {
		return core.ExpenseEntry{}, ErrExpenseNotAllowed
	}

	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	if !r.roster.Contains(member) {
		return core.ExpenseEntry{}, fmt.Errorf("%w: %s", core.ErrUnknownMember, member)
	}

	category := override
	if category == "" {
		category = core.ClassifyNote(note)
	} else if err := category.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}

	now := r.now()
	entry := core.ExpenseEntry{
		Member:     member,
		Amount:     core.Money{Cents: cents},
		Note:       note,
		Category:   category,
		Day:        core.DateOf(now),
		RecordedAt: now,
	}
	ref, err := r.expenses.AppendExpense(ctx, entry)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("append expense entry: %w", err)
	}

	slog.InfoContext(ctx, "Expense entry recorded",
		"member", member, "amount_cents", cents, "category", string(category), "ref", ref)
	return entry, nil
}

// IsValidation reports whether err is a recoverable input validation failure,
// as opposed to a duplicate conflict or a store failure.
func IsValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidCount) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrUnknownMember) ||
		errors.Is(err, core.ErrEmptyMember)
}
