package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"hearth/internal/core"
	"hearth/internal/projection"
)

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items := s.tracker.Upcoming(limit)
	out := make([]upcomingItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toUpcomingItemDTO(item))
	}
	writeJSON(w, http.StatusOK, out)
}

// dayParam reads an optional YYYY-MM-DD query parameter, defaulting to today.
func dayParam(r *http.Request, name string) (core.Day, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return core.DayOf(time.Now()), nil
	}
	return core.ParseDay(v, time.Local)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	snap := s.tracker.Snapshot()
	balances := s.tracker.BalancesFor(day)
	checking, savings := projection.SplitByType(snap.Accounts, balances)

	writeJSON(w, http.StatusOK, balancesDTO{
		Date:     day.String(),
		Accounts: balances,
		Total:    projection.Total(balances),
		Checking: checking,
		Savings:  savings,
	})
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, dayGroupDTO{
		Day:          day.String(),
		Transactions: toTransactionDTOs(s.tracker.CalendarDay(day)),
	})
}

func (s *Server) handleCalendarUpcoming(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDayGroupDTOs(s.tracker.UpcomingDays()))
}

func (s *Server) handleCalendarPast(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDayGroupDTOs(s.tracker.PastDays()))
}

func (s *Server) handleFutureScope(w http.ResponseWriter, r *http.Request) {
	var from, to *core.Day
	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		day, err := core.ParseDay(v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
			return
		}
		from = &day
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		day, err := core.ParseDay(v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
			return
		}
		to = &day
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(s.tracker.FutureScope(from, to)))
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	summary, err := s.tracker.Budget(r.Context())
	if err != nil {
		s.fail(w, r, err, "budget summary")
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(summary))
}

// handleBudgetCategory lists the discretionary transactions behind one
// category's budget figure. period=week narrows to the current week,
// anything else means the current month.
func (s *Server) handleBudgetCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := core.CoerceCategory(r.PathValue("category"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown category "+r.PathValue("category"))
		return
	}
	now := time.Now()
	since := projection.StartOfMonth(now)
	if r.URL.Query().Get("period") == "week" {
		since = projection.StartOfWeek(now)
	}
	snap := s.tracker.Snapshot()
	txns := projection.CategorySpending(snap.Transactions, category, since)
	writeJSON(w, http.StatusOK, toTransactionDTOs(txns))
}
