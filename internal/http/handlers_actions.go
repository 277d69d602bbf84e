package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

type occurrenceRequest struct {
	Date string `json:"date"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type confirmScanRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

type splitRequest struct {
	Dates []string `json:"dates"`
}

type scanRequest struct {
	Amount      string `json:"amount"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	TemplateID  string `json:"templateId,omitempty"`
}

type convertRequest struct {
	Frequency     string `json:"frequency"`
	IsFluctuating bool   `json:"isFluctuating"`
}

type transferRequest struct {
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Date          string          `json:"date"`
}

type adjustBalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

type budgetGoalsRequest struct {
	Monthly decimal.Decimal `json:"monthly"`
	Weekly  decimal.Decimal `json:"weekly"`
}

// decodeOccurrence reads a request body carrying a single occurrence date.
func decodeOccurrence(r *http.Request) (time.Time, error) {
	var req occurrenceRequest
	if err := decodeBody(r, &req); err != nil {
		return time.Time{}, err
	}
	return parseTime(req.Date)
}

func (s *Server) handlePayEarly(w http.ResponseWriter, r *http.Request) {
	occurrence, err := decodeOccurrence(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.actions.PayEarly(r.Context(), s.tracker.Snapshot(), time.Now(), r.PathValue("id"), occurrence); err != nil {
		s.fail(w, r, err, "pay early")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismissOccurrence(w http.ResponseWriter, r *http.Request) {
	occurrence, err := decodeOccurrence(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.actions.DismissOccurrence(r.Context(), s.tracker.Snapshot(), r.PathValue("id"), occurrence); err != nil {
		s.fail(w, r, err, "dismiss occurrence")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSkipNext(w http.ResponseWriter, r *http.Request) {
	if err := s.actions.SkipNextOccurrence(r.Context(), s.tracker.Snapshot(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "skip next occurrence")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePostpone(w http.ResponseWriter, r *http.Request) {
	newDate, err := decodeOccurrence(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.actions.ConfirmPostpone(r.Context(), s.tracker.Snapshot(), r.PathValue("id"), newDate); err != nil {
		s.fail(w, r, err, "postpone")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkPostponedPaid(w http.ResponseWriter, r *http.Request) {
	if err := s.actions.MarkPostponedPaid(r.Context(), s.tracker.Snapshot(), time.Now(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "mark postponed paid")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirmAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.actions.ConfirmFluctuatingAmount(r.Context(), s.tracker.Snapshot(), r.PathValue("id"), req.Amount); err != nil {
		s.fail(w, r, err, "confirm fluctuating amount")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirmByScan(w http.ResponseWriter, r *http.Request) {
	var req confirmScanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	confirmedDate, err := parseTime(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.actions.ConfirmByScan(r.Context(), s.tracker.Snapshot(), r.PathValue("id"), req.Amount, confirmedDate); err != nil {
		s.fail(w, r, err, "confirm by scan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScan records a scanned payment. With a template ID it confirms the
// matching fluctuating bill, otherwise it lands as a plain expense.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Scanned amounts arrive as raw strings, often with a decimal comma.
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	when := time.Now()
	if req.Date != "" {
		parsed, err := parseTime(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		when = parsed
	}

	if req.TemplateID != "" {
		if err := s.actions.ConfirmByScan(r.Context(), s.tracker.Snapshot(), req.TemplateID, amount, when); err != nil {
			s.fail(w, r, err, "confirm by scan")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	description := req.Description
	if description == "" {
		description = "Scanned payment"
	}
	t := core.Transaction{
		Description: description,
		Amount:      amount,
		Direction:   core.Expense,
		Category:    core.Other,
		AccountID:   req.AccountID,
		Date:        &when,
	}
	created, err := s.actions.AddTransaction(r.Context(), t)
	if err != nil {
		s.fail(w, r, err, "scan intake")
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

func (s *Server) handleSplitPayment(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Dates) == 0 {
		writeError(w, http.StatusBadRequest, "at least one date is required")
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		d, err := parseTime(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		dates = append(dates, d)
	}
	if err := s.actions.SplitPayment(r.Context(), s.tracker.Snapshot(), r.PathValue("id"), dates); err != nil {
		s.fail(w, r, err, "split payment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConvertToRecurring(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	freq, ok := core.CoerceFrequency(req.Frequency)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "invalid frequency")
		return
	}

	snap := s.tracker.Snapshot()
	var source *core.Transaction
	for i := range snap.Transactions {
		if snap.Transactions[i].ID == r.PathValue("id") {
			source = &snap.Transactions[i]
			break
		}
	}
	if source == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	item, err := s.actions.ConvertToRecurring(r.Context(), time.Now(), *source, freq, req.IsFluctuating)
	if err != nil {
		s.fail(w, r, err, "convert to recurring")
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringItemDTO(item))
}

func (s *Server) handleAddTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseTime(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.actions.AddTransfer(r.Context(), req.Description, req.Amount, req.FromAccountID, req.ToAccountID, date); err != nil {
		s.fail(w, r, err, "add transfer")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req adjustBalanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.actions.AdjustBalance(r.Context(), s.tracker.Snapshot(), time.Now(), r.PathValue("id"), req.Balance); err != nil {
		s.fail(w, r, err, "adjust balance")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBudgetGoals(w http.ResponseWriter, r *http.Request) {
	var req budgetGoalsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	goals := core.BudgetGoals{Monthly: req.Monthly, Weekly: req.Weekly}
	if err := s.actions.SetBudgetGoals(r.Context(), goals); err != nil {
		s.fail(w, r, err, "set budget goals")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefreshLegacySkips(w http.ResponseWriter, r *http.Request) {
	if err := s.actions.RefreshLegacySkips(r.Context(), s.tracker.Snapshot()); err != nil {
		s.fail(w, r, err, "refresh legacy skips")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
