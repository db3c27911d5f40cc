package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hishab/internal/core"
)

// Entry kinds as stored in sync messages and used by the worker to load rows.
const (
	KindMeal    = "meal"
	KindExpense = "expense"
)

// PendingEntry identifies a row that has not been mirrored to the remote sheet.
type PendingEntry struct {
	Kind string
	ID   int64
}

// Repository is the local SQLite event store. Meal rows are unique per
// (member, day); expense rows are append-only. Each row carries sync
// bookkeeping for the background sheet mirror.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// modernc.org/sqlite serialises writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ListMeals(ctx context.Context) ([]core.MealEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member, count, day, recorded_at FROM meals ORDER BY day, member`)
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	var out []core.MealEntry
	for rows.Next() {
		e, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) FindMeal(ctx context.Context, member string, day core.Date) (*core.MealEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT member, count, day, recorded_at FROM meals WHERE member = ? AND day = ?`,
		member, day.Key())
	e, err := scanMeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) UpsertMeal(ctx context.Context, e core.MealEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO meals (member, count, day, recorded_at, synced, sync_error)
		 VALUES (?, ?, ?, ?, 0, 0)
		 ON CONFLICT (member, day) DO UPDATE SET
		     count = excluded.count,
		     recorded_at = excluded.recorded_at,
		     synced = 0,
		     sync_error = 0
		 RETURNING id`,
		e.Member, e.Count, e.Day.Key(), e.RecordedAt.UTC().Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert meal: %w", err)
	}
	return fmt.Sprintf("sqlite:%s:%d", KindMeal, id), nil
}

func (r *Repository) ListExpenses(ctx context.Context) ([]core.ExpenseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member, amount_cents, note, category, day, recorded_at FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseEntry
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) AppendExpense(ctx context.Context, e core.ExpenseEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (member, amount_cents, note, category, day, recorded_at, synced, sync_error)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0)
		 RETURNING id`,
		e.Member, e.Amount.Cents, e.Note, string(e.Category), e.Day.Key(),
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	return fmt.Sprintf("sqlite:%s:%d", KindExpense, id), nil
}

// ResetAll deletes every entry in a single transaction.
func (r *Repository) ResetAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meals`); err != nil {
		return fmt.Errorf("delete meals: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	return tx.Commit()
}

// GetMeal loads a meal row by id for the sync worker.
func (r *Repository) GetMeal(ctx context.Context, id int64) (core.MealEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT member, count, day, recorded_at FROM meals WHERE id = ?`, id)
	e, err := scanMeal(row)
	if err == sql.ErrNoRows {
		return core.MealEntry{}, fmt.Errorf("meal %d not found", id)
	}
	return e, err
}

// GetExpense loads an expense row by id for the sync worker.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.ExpenseEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT member, amount_cents, note, category, day, recorded_at FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return core.ExpenseEntry{}, fmt.Errorf("expense %d not found", id)
	}
	return e, err
}

// ListPending returns ids of rows awaiting a remote mirror, oldest first,
// capped at limit per kind.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]PendingEntry, error) {
	var out []PendingEntry
	for _, q := range []struct {
		kind  string
		query string
	}{
		{KindMeal, `SELECT id FROM meals WHERE synced = 0 AND sync_error = 0 ORDER BY id LIMIT ?`},
		{KindExpense, `SELECT id FROM expenses WHERE synced = 0 AND sync_error = 0 ORDER BY id LIMIT ?`},
	} {
		rows, err := r.db.QueryContext(ctx, q.query, limit)
		if err != nil {
			return nil, fmt.Errorf("query pending %ss: %w", q.kind, err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan pending %s: %w", q.kind, err)
			}
			out = append(out, PendingEntry{Kind: q.kind, ID: id})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

func (r *Repository) MarkSynced(ctx context.Context, kind string, id int64) error {
	return r.setSyncFlags(ctx, kind, id, 1, 0)
}

func (r *Repository) MarkSyncError(ctx context.Context, kind string, id int64) error {
	return r.setSyncFlags(ctx, kind, id, 0, 1)
}

func (r *Repository) setSyncFlags(ctx context.Context, kind string, id int64, synced, syncErr int) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET synced = ?, sync_error = ? WHERE id = ?`, table),
		synced, syncErr, id)
	if err != nil {
		return fmt.Errorf("update sync flags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %d not found", kind, id)
	}
	return nil
}

// ParseRef splits a "sqlite:<kind>:<id>" store reference back into its parts.
func ParseRef(ref string) (kind string, id int64, err error) {
	rest, ok := strings.CutPrefix(ref, "sqlite:")
	if !ok {
		return "", 0, fmt.Errorf("not a sqlite ref: %q", ref)
	}
	kind, idStr, ok := strings.Cut(rest, ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed ref: %q", ref)
	}
	if _, err := tableFor(kind); err != nil {
		return "", 0, err
	}
	id, err = strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed ref id in %q: %w", ref, err)
	}
	return kind, id, nil
}

func tableFor(kind string) (string, error) {
	switch kind {
	case KindMeal:
		return "meals", nil
	case KindExpense:
		return "expenses", nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", kind)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (core.MealEntry, error) {
	var (
		e       core.MealEntry
		day, ts string
	)
	if err := row.Scan(&e.Member, &e.Count, &day, &ts); err != nil {
		return core.MealEntry{}, err
	}
	d, err := core.ParseDate(day)
	if err != nil {
		return core.MealEntry{}, fmt.Errorf("parse meal day %q: %w", day, err)
	}
	e.Day = d
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return core.MealEntry{}, fmt.Errorf("parse meal timestamp %q: %w", ts, err)
	}
	e.RecordedAt = t
	return e, nil
}

func scanExpense(row rowScanner) (core.ExpenseEntry, error) {
	var (
		e        core.ExpenseEntry
		category string
		day, ts  string
	)
	if err := row.Scan(&e.Member, &e.Amount.Cents, &e.Note, &category, &day, &ts); err != nil {
		return core.ExpenseEntry{}, err
	}
	e.Category = core.Category(category)
	d, err := core.ParseDate(day)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("parse expense day %q: %w", day, err)
	}
	e.Day = d
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("parse expense timestamp %q: %w", ts, err)
	}
	e.RecordedAt = t
	return e, nil
}
