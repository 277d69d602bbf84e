package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hearth/internal/core"
	"hearth/internal/projection"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrNoAccount),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := statusFor(err)
	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed", "operation", op, "error", err)
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	out := make([]accountDTO, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		out = append(out, toAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var dto accountDTO
	if err := decodeBody(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.actions.AddAccount(r.Context(), dto.toDomain())
	if err != nil {
		s.fail(w, r, err, "add account")
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(created))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.actions.DeleteAccount(r.Context(), s.tracker.Snapshot(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	q := r.URL.Query()
	if len(q) == 0 {
		writeJSON(w, http.StatusOK, toTransactionDTOs(snap.Transactions))
		return
	}

	filter := projection.HistoryFilter{
		Search:    q.Get("q"),
		AccountID: q.Get("accountId"),
	}
	if raw := q.Get("category"); raw != "" {
		category, ok := core.CoerceCategory(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown category "+raw)
			return
		}
		filter.Category = category
	}
	if raw := q.Get("start"); raw != "" {
		day, err := core.ParseDay(raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date "+raw)
			return
		}
		filter.From = &day
	}
	if raw := q.Get("end"); raw != "" {
		day, err := core.ParseDay(raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date "+raw)
			return
		}
		filter.To = &day
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(projection.History(snap.Transactions, filter)))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var dto transactionDTO
	if err := decodeBody(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := dto.toDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	created, err := s.actions.AddTransaction(r.Context(), t)
	if err != nil {
		s.fail(w, r, err, "add transaction")
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var dto transactionDTO
	if err := decodeBody(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dto.ID = r.PathValue("id")
	t, err := dto.toDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.actions.UpdateTransaction(r.Context(), s.tracker.Snapshot(), t); err != nil {
		s.fail(w, r, err, "update transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.actions.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	out := make([]recurringItemDTO, 0, len(snap.RecurringItems))
	for _, item := range snap.RecurringItems {
		out = append(out, toRecurringItemDTO(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertRecurring(w http.ResponseWriter, r *http.Request) {
	var dto recurringItemDTO
	if err := decodeBody(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := dto.toDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	saved, err := s.actions.UpsertRecurringItem(r.Context(), item)
	if err != nil {
		s.fail(w, r, err, "upsert recurring item")
		return
	}
	writeJSON(w, http.StatusOK, toRecurringItemDTO(saved))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.actions.DeleteRecurringSeries(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "delete recurring series")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteOccurrence removes one occurrence from the timeline: a
// projected one becomes a skipped date, an actual one is deleted outright.
func (s *Server) handleDeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap := s.tracker.Snapshot()

	target, ok := findTimelineEntry(s.tracker.Timeline(), snap.Transactions, id)
	if !ok {
		writeError(w, http.StatusNotFound, "occurrence not found")
		return
	}
	if err := s.actions.DeleteOccurrence(r.Context(), snap, target); err != nil {
		s.fail(w, r, err, "delete occurrence")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func findTimelineEntry(timeline, actuals []core.Transaction, id string) (core.Transaction, bool) {
	for _, t := range timeline {
		if t.ID == id {
			return t, true
		}
	}
	// Undated actuals never reach the timeline but are still deletable.
	for _, t := range actuals {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}
