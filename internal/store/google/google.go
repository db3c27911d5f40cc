// Package google is the Google Sheets Event Store adapter. The spreadsheet is
// the household's shared source of truth in the sheet-backed deployment: one
// tab for meal entries, one for expenses.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"hishab/internal/core"
	"hishab/internal/store"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	mealsSheet    string
	expensesSheet string
}

// Ensure interface conformance
var (
	_ store.MealStore    = (*Client)(nil)
	_ store.ExpenseStore = (*Client)(nil)
	_ store.Resetter     = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional tab names: GOOGLE_MEALS_SHEET_NAME (default "Meals"),
// GOOGLE_EXPENSES_SHEET_NAME (default "Expenses").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	mealsSheet := strings.TrimSpace(os.Getenv("GOOGLE_MEALS_SHEET_NAME"))
	if mealsSheet == "" {
		mealsSheet = "Meals"
	}
	expensesSheet := strings.TrimSpace(os.Getenv("GOOGLE_EXPENSES_SHEET_NAME"))
	if expensesSheet == "" {
		expensesSheet = "Expenses"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		mealsSheet:    mealsSheet,
		expensesSheet: expensesSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) ListMeals(ctx context.Context) ([]core.MealEntry, error) {
	rows, err := c.readRows(ctx, c.mealsSheet, "A:D")
	if err != nil {
		return nil, err
	}
	var out []core.MealEntry
	for _, row := range rows {
		e, ok := parseMealRow(row)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) FindMeal(ctx context.Context, member string, day core.Date) (*core.MealEntry, error) {
	_, entry, err := c.findMealRow(ctx, member, day)
	return entry, err
}

// findMealRow returns the 1-based sheet row of the (member, day) entry, or 0
// when absent. Used by UpsertMeal to overwrite in place.
func (c *Client) findMealRow(ctx context.Context, member string, day core.Date) (int, *core.MealEntry, error) {
	rows, err := c.readRows(ctx, c.mealsSheet, "A:D")
	if err != nil {
		return 0, nil, err
	}
	for i, row := range rows {
		e, ok := parseMealRow(row)
		if !ok {
			continue
		}
		if e.Member == member && e.Day.Key() == day.Key() {
			return i + 1, &e, nil
		}
	}
	return 0, nil, nil
}

func (c *Client) UpsertMeal(ctx context.Context, e core.MealEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row, _, err := c.findMealRow(ctx, e.Member, e.Day)
	if err != nil {
		return "", err
	}

	values := &gsheet.ValueRange{Values: [][]any{mealRow(e)}}
	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:D%d", c.mealsSheet, row, row)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update meal row %d in sheet %s: %w", row, c.mealsSheet, err)
		}
		slog.InfoContext(ctx, "Overwrote meal row in sheet", "sheet", c.mealsSheet, "row", row)
		return rng, nil
	}

	rng := fmt.Sprintf("%s!A:D", c.mealsSheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, values).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append meal to sheet %s: %w", c.mealsSheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.ExpenseEntry, error) {
	rows, err := c.readRows(ctx, c.expensesSheet, "A:F")
	if err != nil {
		return nil, err
	}
	var out []core.ExpenseEntry
	for _, row := range rows {
		e, ok := parseExpenseRow(row)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) AppendExpense(ctx context.Context, e core.ExpenseEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:F", c.expensesSheet)
	values := &gsheet.ValueRange{Values: [][]any{expenseRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, values).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append expense to sheet %s: %w", c.expensesSheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// ResetAll clears both tabs. Header-less sheets: every row is data.
func (c *Client) ResetAll(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	for _, sheet := range []string{c.mealsSheet, c.expensesSheet} {
		rng := fmt.Sprintf("%s!A:F", sheet)
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("clear sheet %s: %w", sheet, err)
		}
	}
	slog.InfoContext(ctx, "Cleared all sheet data", "spreadsheet", c.spreadsheetID)
	return nil
}

func (c *Client) readRows(ctx context.Context, sheet, cols string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}
