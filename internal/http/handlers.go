package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hishab/internal/core"
	"hishab/internal/services"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today   string
		Members []string
	}{
		Today:   core.DateOf(time.Now()).Key(),
		Members: s.roster,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleRecordMeal accepts today's meal count for one member. A duplicate for
// the same day is a 409 unless the admin submits it, in which case the entry
// is overwritten.
func (s *Server) handleRecordMeal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	member := sanitizeInput(r.Form.Get("member"))
	count := strings.TrimSpace(r.Form.Get("count"))

	entry, err := s.recorder.RecordMeal(r.Context(), member, count, s.roleFor(member))
	if err != nil {
		var dup *services.DuplicateError
		switch {
		case errors.As(err, &dup):
			entriesRejected.WithLabelValues("duplicate").Inc()
			ConflictError(fmt.Sprintf("Meal already logged for %s today (count %s). Ask %s to correct it.",
				dup.Member, formatCount(dup.PriorCount), s.adminMember)).Write(w)
		case services.IsValidation(err):
			entriesRejected.WithLabelValues("validation").Inc()
			UnprocessableEntityError("Invalid meal entry: " + err.Error()).Write(w)
		default:
			slog.ErrorContext(r.Context(), "Meal record error", "error", err, "member", member)
			InternalServerError("Could not save the meal entry").Write(w)
		}
		return
	}

	entriesRecorded.WithLabelValues("meal").Inc()
	NewHTMXResponse().
		TriggerEntryCreated("meal").
		TriggerFormReset().
		BodyHTML(`<div class="success">Meal recorded: ` +
			template.HTMLEscapeString(entry.Member) + ` — ` +
			template.HTMLEscapeString(formatCount(entry.Count)) + ` meal(s) on ` +
			template.HTMLEscapeString(entry.Day.Key()) + `</div>`).
		Write(w)
}

// handleRecordExpense appends a Market or Utility expense. Category comes from
// the explicit form field when set, otherwise it is derived from the note.
func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	member := sanitizeInput(r.Form.Get("member"))
	amount := strings.TrimSpace(r.Form.Get("amount"))
	note := sanitizeInput(r.Form.Get("note"))
	category := core.Category(strings.TrimSpace(r.Form.Get("category")))

	entry, err := s.recorder.RecordExpense(r.Context(), member, amount, note, category, s.roleFor(member))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExpenseNotAllowed):
			entriesRejected.WithLabelValues("forbidden").Inc()
			ForbiddenError("Only " + s.adminMember + " can record expenses").Write(w)
		case services.IsValidation(err):
			entriesRejected.WithLabelValues("validation").Inc()
			UnprocessableEntityError("Invalid expense entry: " + err.Error()).Write(w)
		default:
			slog.ErrorContext(r.Context(), "Expense record error", "error", err, "member", member)
			InternalServerError("Could not save the expense entry").Write(w)
		}
		return
	}

	entriesRecorded.WithLabelValues("expense").Inc()
	NewHTMXResponse().
		TriggerEntryCreated("expense").
		TriggerFormReset().
		BodyHTML(`<div class="success">Expense recorded: ` +
			template.HTMLEscapeString(entry.Member) + ` — ` +
			template.HTMLEscapeString(formatTaka(float64(entry.Amount.Cents))) +
			` (` + template.HTMLEscapeString(string(entry.Category)) + `)</div>`).
		Write(w)
}

// handleReset clears the whole event store. Admin only, and the confirm field
// must spell RESET; the Event Store has no undo.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	member := sanitizeInput(r.Form.Get("member"))
	if !s.roleFor(member).IsAdmin() {
		ForbiddenError("Only " + s.adminMember + " can reset the records").Write(w)
		return
	}
	if strings.TrimSpace(r.Form.Get("confirm")) != "RESET" {
		UnprocessableEntityError(`Type RESET in the confirmation field to wipe all records`).Write(w)
		return
	}

	if err := s.store.ResetAll(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Reset error", "error", err)
		InternalServerError("Could not reset the records").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "All records reset", "by", member)
	NewHTMXResponse().
		TriggerStoreReset().
		BodyHTML(`<div class="success">All records cleared</div>`).
		Write(w)
}

type settlementRow struct {
	Member    string
	Meals     string
	Market    string
	Utility   string
	Paid      string
	Owes      string
	Balance   string
	Direction string // "receives", "pays" or "settled"
}

// handleSettlement renders the settlement partial. Always recomputed from the
// current entries; a write is visible on the very next request.
func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	settlement, err := s.settlement.Compute(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Settlement compute error", "error", err)
		_, _ = w.Write([]byte(`<section id="settlement" class="settlement"><div class="placeholder">Could not load the settlement</div></section>`))
		return
	}
	settlementsComputed.Inc()

	data := struct {
		Status       string
		TotalMarket  string
		TotalUtility string
		TotalMeals   string
		MealRate     string
		UtilityShare string
		Rows         []settlementRow
	}{
		Status:       string(settlement.Status),
		TotalMarket:  formatTaka(float64(settlement.TotalMarket.Cents)),
		TotalUtility: formatTaka(float64(settlement.TotalUtility.Cents)),
		TotalMeals:   formatCount(settlement.TotalMeals),
		MealRate:     formatTaka(settlement.MealRateCents),
		UtilityShare: formatTaka(settlement.UtilityShareCents),
	}
	for _, share := range settlement.Shares {
		direction := "settled"
		if share.BalanceCents > 0.5 {
			direction = "receives"
		} else if share.BalanceCents < -0.5 {
			direction = "pays"
		}
		data.Rows = append(data.Rows, settlementRow{
			Member:    share.Member,
			Meals:     formatCount(share.MealCount),
			Market:    formatTaka(float64(share.MarketPaid.Cents)),
			Utility:   formatTaka(float64(share.UtilityPaid.Cents)),
			Paid:      formatTaka(float64(share.TotalPaid.Cents)),
			Owes:      formatTaka(share.AllocatedCents),
			Balance:   formatTaka(share.BalanceCents),
			Direction: direction,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="settlement" class="settlement"><div class="placeholder">Status: ` + template.HTMLEscapeString(data.Status) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "settlement.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "settlement.html")
		_, _ = w.Write([]byte(`<section id="settlement" class="settlement"><div class="placeholder">Could not render the settlement</div></section>`))
	}
}

type feedRow struct {
	Kind   string
	Member string
	Detail string
	Day    string
	Time   string
}

// handleEntries renders the recent entries feed, newest first.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	events, err := s.settlement.RecentEvents(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Entries feed error", "error", err)
		_, _ = w.Write([]byte(`<section id="entries" class="entries"><div class="placeholder">Could not load the entries</div></section>`))
		return
	}

	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if len(events) > limit {
		events = events[:limit]
	}

	data := struct {
		Rows []feedRow
	}{}
	for _, ev := range events {
		row := feedRow{
			Kind:   string(ev.Kind),
			Member: ev.Member,
			Day:    ev.Day.Key(),
			Time:   ev.RecordedAt.Format("15:04"),
		}
		switch ev.Kind {
		case core.EventMeal:
			row.Detail = formatCount(ev.Count) + " meal(s)"
		case core.EventExpense:
			row.Detail = formatTaka(float64(ev.Amount.Cents)) + " " + string(ev.Category)
			if ev.Note != "" {
				row.Detail += " — " + ev.Note
			}
		}
		data.Rows = append(data.Rows, row)
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="entries" class="entries"><div class="placeholder">` + strconv.Itoa(len(data.Rows)) + ` entries</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "entries.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "entries.html")
		_, _ = w.Write([]byte(`<section id="entries" class="entries"><div class="placeholder">Could not render the entries</div></section>`))
	}
}

// formatTaka renders a cent amount (possibly fractional, from rate math) as
// a two-decimal taka string.
func formatTaka(cents float64) string {
	return fmt.Sprintf("৳%.2f", cents/100.0)
}

func formatCount(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
