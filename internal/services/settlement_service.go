package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"hishab/internal/core"
	"hishab/internal/store"
)

// SettlementService reads a consistent snapshot of the event set and runs the
// pure settlement computation over it. It holds no state between calls; every
// request recomputes from the current store contents.
type SettlementService struct {
	meals    store.MealReader
	expenses store.ExpenseReader
	roster   core.Roster
}

func NewSettlementService(meals store.MealReader, expenses store.ExpenseReader, roster core.Roster) *SettlementService {
	return &SettlementService{meals: meals, expenses: expenses, roster: roster}
}

func (s *SettlementService) snapshot(ctx context.Context) ([]core.MealEntry, []core.ExpenseEntry, error) {
	var (
		meals    []core.MealEntry
		expenses []core.ExpenseEntry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meals, err = s.meals.ListMeals(ctx)
		if err != nil {
			return fmt.Errorf("list meals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.ListExpenses(ctx)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return meals, expenses, nil
}

// Compute returns the settlement for the current event set, or one of the
// named empty / meals-required results.
func (s *SettlementService) Compute(ctx context.Context) (core.Settlement, error) {
	meals, expenses, err := s.snapshot(ctx)
	if err != nil {
		return core.Settlement{}, err
	}
	return core.ComputeSettlement(meals, expenses, s.roster), nil
}

// RecentEvents returns the merged entries feed, newest first.
func (s *SettlementService) RecentEvents(ctx context.Context) ([]core.FeedEvent, error) {
	meals, expenses, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.MergeFeed(meals, expenses), nil
}
