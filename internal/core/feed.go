package core

import (
	"sort"
	"time"
)

const (
	EventMeal    EventKind = "meal"
	EventExpense EventKind = "expense"
)

type (
	EventKind string

	// FeedEvent is one row of the combined entries view.
	FeedEvent struct {
		Kind       EventKind
		Member     string
		Day        Date
		RecordedAt time.Time

		// Meal fields
		Count float64

		// Expense fields
		Amount   Money
		Note     string
		Category Category
	}
)

// MergeFeed combines meal and expense entries into one chronological feed,
// newest first. Entries sharing a timestamp sort latest insertion first, so a
// tie between an older and a newer write still shows the newer write on top.
func MergeFeed(meals []MealEntry, expenses []ExpenseEntry) []FeedEvent {
	events := make([]FeedEvent, 0, len(meals)+len(expenses))
	for _, m := range meals {
		events = append(events, FeedEvent{
			Kind:       EventMeal,
			Member:     m.Member,
			Day:        m.Day,
			RecordedAt: m.RecordedAt,
			Count:      m.Count,
		})
	}
	for _, e := range expenses {
		events = append(events, FeedEvent{
			Kind:       EventExpense,
			Member:     e.Member,
			Day:        e.Day,
			RecordedAt: e.RecordedAt,
			Amount:     e.Amount,
			Note:       e.Note,
			Category:   e.Category,
		})
	}

	// Sort a permutation so ties can fall back on insertion position.
	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ea, eb := events[idx[a]], events[idx[b]]
		if !ea.RecordedAt.Equal(eb.RecordedAt) {
			return ea.RecordedAt.After(eb.RecordedAt)
		}
		return idx[a] > idx[b]
	})

	out := make([]FeedEvent, len(events))
	for i, j := range idx {
		out[i] = events[j]
	}
	return out
}
