package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hishab/internal/core"
)

// Sheet layouts. Meals: Day, Member, Count, Timestamp.
// Expenses: Day, Member, Amount, Note, Category, Timestamp.
// Days are "2006-01-02", timestamps RFC3339, amounts plain decimals.

func mealRow(e core.MealEntry) []any {
	return []any{
		e.Day.Key(),
		e.Member,
		e.Count,
		e.RecordedAt.UTC().Format(time.RFC3339),
	}
}

func expenseRow(e core.ExpenseEntry) []any {
	return []any{
		e.Day.Key(),
		e.Member,
		e.Amount.Taka(),
		e.Note,
		string(e.Category),
		e.RecordedAt.UTC().Format(time.RFC3339),
	}
}

// parseMealRow converts one sheet row into a meal entry. Rows that do not
// parse (headers, stray notes) are skipped, not errors; the sheet is shared
// and hand-edited.
func parseMealRow(row []any) (core.MealEntry, bool) {
	cols := toStrings(row)
	if len(cols) < 3 {
		return core.MealEntry{}, false
	}
	day, err := core.ParseDate(cols[0])
	if err != nil {
		return core.MealEntry{}, false
	}
	member := cols[1]
	if member == "" {
		return core.MealEntry{}, false
	}
	count, err := strconv.ParseFloat(strings.ReplaceAll(cols[2], ",", "."), 64)
	if err != nil || count <= 0 {
		return core.MealEntry{}, false
	}
	e := core.MealEntry{Member: member, Count: count, Day: day}
	if len(cols) >= 4 {
		if ts, err := time.Parse(time.RFC3339, cols[3]); err == nil {
			e.RecordedAt = ts
		}
	}
	if e.RecordedAt.IsZero() {
		// Hand-entered rows carry no timestamp; anchor them to the day.
		e.RecordedAt = day.Time
	}
	return e, true
}

func parseExpenseRow(row []any) (core.ExpenseEntry, bool) {
	cols := toStrings(row)
	if len(cols) < 3 {
		return core.ExpenseEntry{}, false
	}
	day, err := core.ParseDate(cols[0])
	if err != nil {
		return core.ExpenseEntry{}, false
	}
	member := cols[1]
	if member == "" {
		return core.ExpenseEntry{}, false
	}
	cents, ok := parseTakaToCents(cols[2])
	if !ok || cents <= 0 {
		return core.ExpenseEntry{}, false
	}
	e := core.ExpenseEntry{
		Member: member,
		Amount: core.Money{Cents: cents},
		Day:    day,
	}
	if len(cols) >= 4 {
		e.Note = cols[3]
	}
	if len(cols) >= 5 && cols[4] != "" {
		c := core.Category(cols[4])
		if c.Validate() != nil {
			return core.ExpenseEntry{}, false
		}
		e.Category = c
	} else {
		// Old rows predate the category column.
		e.Category = core.ClassifyNote(e.Note)
	}
	if len(cols) >= 6 {
		if ts, err := time.Parse(time.RFC3339, cols[5]); err == nil {
			e.RecordedAt = ts
		}
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = day.Time
	}
	return e, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func parseTakaToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64((f * 100.0) + 0.5), true
}
