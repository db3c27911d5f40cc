package services

import (
	"context"
	"testing"
	"time"

	"hishab/internal/core"
	"hishab/internal/store/memory"
)

func TestComputeOverStore(t *testing.T) {
	st := memory.New()
	rec := NewRecorder(st, st, testRoster, Policy{})
	rec.now = func() time.Time {
		return time.Date(2026, 8, 15, 13, 30, 0, 0, time.UTC)
	}
	svc := NewSettlementService(st, st, testRoster)
	ctx := context.Background()

	s, err := svc.Compute(ctx)
	if err != nil {
		t.Fatalf("Compute on empty store: %v", err)
	}
	if s.Status != core.SettlementEmpty {
		t.Fatalf("expected empty status, got %s", s.Status)
	}

	if _, err := rec.RecordMeal(ctx, "Sayeed", "10", core.RoleMember); err != nil {
		t.Fatalf("RecordMeal: %v", err)
	}
	if _, err := rec.RecordMeal(ctx, "Saklain", "10", core.RoleMember); err != nil {
		t.Fatalf("RecordMeal: %v", err)
	}
	if _, err := rec.RecordExpense(ctx, "Sayeed", "200", "bazar", "", core.RoleMember); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	s, err = svc.Compute(ctx)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if s.Status != core.SettlementReady {
		t.Fatalf("expected ready status, got %s", s.Status)
	}
	if s.MealRateCents != 1000 {
		t.Errorf("expected meal rate 1000 cents, got %g", s.MealRateCents)
	}

	// A further write changes the next computation; nothing is cached.
	if _, err := rec.RecordExpense(ctx, "Shishir", "40", "electric bill", "", core.RoleMember); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}
	s, err = svc.Compute(ctx)
	if err != nil {
		t.Fatalf("Compute after write: %v", err)
	}
	if s.TotalUtility.Cents != 4000 {
		t.Errorf("expected utility total 4000 cents, got %d", s.TotalUtility.Cents)
	}
}

func TestRecentEventsOverStore(t *testing.T) {
	st := memory.New()
	rec := NewRecorder(st, st, testRoster, Policy{})
	base := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	step := 0
	rec.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	svc := NewSettlementService(st, st, testRoster)
	ctx := context.Background()

	if _, err := rec.RecordMeal(ctx, "Sayeed", "2", core.RoleMember); err != nil {
		t.Fatalf("RecordMeal: %v", err)
	}
	if _, err := rec.RecordExpense(ctx, "Saklain", "150", "bazar", "", core.RoleMember); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	events, err := svc.RecentEvents(ctx)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != core.EventExpense || events[1].Kind != core.EventMeal {
		t.Errorf("expected newest-first order, got %s then %s", events[0].Kind, events[1].Kind)
	}
}
