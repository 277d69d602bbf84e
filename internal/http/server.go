// Package http exposes the tracker over a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hearth/internal/actions"
	applog "hearth/internal/log"
	"hearth/internal/tracker"
)

type Server struct {
	http.Server
	tracker     *tracker.Tracker
	actions     *actions.Service
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, trk *tracker.Tracker, svc *actions.Service) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		tracker:     trk,
		actions:     svc,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		startedAt:   time.Now(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/accounts", s.guard(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.guard(s.handleAddAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.guard(s.handleDeleteAccount))
	mux.HandleFunc("POST /api/accounts/{id}/adjust-balance", s.guard(s.handleAdjustBalance))

	mux.HandleFunc("GET /api/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.guard(s.handleAddTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.guard(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/{id}/convert", s.guard(s.handleConvertToRecurring))
	mux.HandleFunc("POST /api/transfers", s.guard(s.handleAddTransfer))
	mux.HandleFunc("POST /api/scan", s.guard(s.handleScan))

	mux.HandleFunc("GET /api/recurring", s.guard(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.guard(s.handleUpsertRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.guard(s.handleDeleteRecurring))
	mux.HandleFunc("POST /api/recurring/{id}/pay-early", s.guard(s.handlePayEarly))
	mux.HandleFunc("POST /api/recurring/{id}/dismiss", s.guard(s.handleDismissOccurrence))
	mux.HandleFunc("POST /api/recurring/{id}/skip-next", s.guard(s.handleSkipNext))
	mux.HandleFunc("POST /api/recurring/{id}/postpone", s.guard(s.handlePostpone))
	mux.HandleFunc("POST /api/recurring/{id}/mark-paid", s.guard(s.handleMarkPostponedPaid))
	mux.HandleFunc("POST /api/recurring/{id}/confirm-amount", s.guard(s.handleConfirmAmount))
	mux.HandleFunc("POST /api/recurring/{id}/confirm-scan", s.guard(s.handleConfirmByScan))
	mux.HandleFunc("POST /api/recurring/{id}/split", s.guard(s.handleSplitPayment))
	mux.HandleFunc("DELETE /api/occurrences/{id}", s.guard(s.handleDeleteOccurrence))

	mux.HandleFunc("GET /api/upcoming", s.guard(s.handleUpcoming))
	mux.HandleFunc("GET /api/balances", s.guard(s.handleBalances))
	mux.HandleFunc("GET /api/calendar", s.guard(s.handleCalendarDay))
	mux.HandleFunc("GET /api/calendar/upcoming", s.guard(s.handleCalendarUpcoming))
	mux.HandleFunc("GET /api/calendar/past", s.guard(s.handleCalendarPast))
	mux.HandleFunc("GET /api/future", s.guard(s.handleFutureScope))
	mux.HandleFunc("GET /api/budget", s.guard(s.handleBudget))
	mux.HandleFunc("GET /api/budget/categories/{category}", s.guard(s.handleBudgetCategory))
	mux.HandleFunc("PUT /api/budget", s.guard(s.handleSetBudgetGoals))

	mux.HandleFunc("POST /api/maintenance/refresh-legacy-skips", s.guard(s.handleRefreshLegacySkips))

	// Every request carries a component-scoped logger in its context.
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	s.Server.Handler = applog.Middleware(logger)(mux)

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// guard adds rate limiting, security headers, and request logging.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r, s.metrics)
		requestID := generateRequestID()

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"request_id", requestID,
				"method", r.Method,
				"url", r.URL.Path,
				"client_ip", clientIP)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		sl := applog.NewStructuredLogger(applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID))
		sl.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// The tracker holds its state in memory, so a live process is a ready one.
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
