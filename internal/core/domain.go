package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Market  Category = "Market"
	Utility Category = "Utility"

	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type (
	// Category tags an expense as pooled market spend or equally split utility spend.
	Category string

	// Role is the trust flag callers pass per operation. It is not a security boundary.
	Role string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Roster is the fixed, ordered set of members for the billing period.
	Roster []string

	// MealEntry records how many meals one member consumed on one day.
	// At most one entry exists per (member, day); writes go through the upsert path.
	MealEntry struct {
		Member     string
		Count      float64
		Day        Date
		RecordedAt time.Time
	}

	// ExpenseEntry records money one member spent. Append-only, never mutated.
	ExpenseEntry struct {
		Member     string
		Amount     Money
		Note       string
		Category   Category
		Day        Date
		RecordedAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCount    = errors.New("invalid meal count")
	ErrInvalidCategory = errors.New("invalid category")
	ErrUnknownMember   = errors.New("unknown member")
	ErrEmptyMember     = errors.New("empty member")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Key returns the canonical day key used to identify meal entries.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a moment to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a day key produced by Date.Key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	switch c {
	case Market, Utility:
		return nil
	default:
		return ErrInvalidCategory
	}
}

// IsAdmin reports whether the role carries the privileged overwrite capability.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Contains reports whether member belongs to the roster.
func (r Roster) Contains(member string) bool {
	for _, m := range r {
		if m == member {
			return true
		}
	}
	return false
}

func (e MealEntry) Validate() error {
	if strings.TrimSpace(e.Member) == "" {
		return ErrEmptyMember
	}
	if e.Count <= 0 || math.IsNaN(e.Count) || math.IsInf(e.Count, 0) {
		return ErrInvalidCount
	}
	return e.Day.Validate()
}

func (e ExpenseEntry) Validate() error {
	if strings.TrimSpace(e.Member) == "" {
		return ErrEmptyMember
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	return e.Day.Validate()
}
