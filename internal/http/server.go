// Package http exposes the budget service as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetweek/internal/log"
	"budgetweek/internal/services"
)

// ReadinessCheck reports whether the server's dependencies can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Server wraps http.Server with the budget routes and their middleware.
type Server struct {
	http.Server
	budget       *services.BudgetService
	logger       *log.Logger
	ready        ReadinessCheck
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// A nil ready check always reports ready.
func NewServer(addr string, budget *services.BudgetService, logger *log.Logger, ready ReadinessCheck) *Server {
	logger = logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		budget:      budget,
		logger:      logger,
		ready:       ready,
		rateLimiter: newRateLimiter(defaultRequestsPerMinute),
		metrics:     &securityMetrics{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/weeks", s.handleMonthWeeks)
	mux.HandleFunc("GET /api/weeks/current", s.handleCurrentWeek)
	mux.HandleFunc("GET /api/schedule/biweekly", s.handleBiweeklySchedule)

	mux.HandleFunc("POST /api/transactions/income", s.handleAddIncome)
	mux.HandleFunc("POST /api/transactions/expense", s.handleAddExpense)
	mux.HandleFunc("DELETE /api/transactions", s.handleDeleteTransactionAt)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/bills", s.handleAddBill)
	mux.HandleFunc("POST /api/bills/{id}/pay", s.handlePayBill)
	mux.HandleFunc("POST /api/bills/{id}/overdue", s.handleMarkOverdue)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)

	mux.HandleFunc("POST /api/income/{date}/toggle", s.handleToggleWorkDay)
	mux.HandleFunc("PUT /api/income/{date}", s.handleDailyIncome)

	mux.HandleFunc("PUT /api/balance", s.handleModifyBalance)
	mux.HandleFunc("PUT /api/goals/{type}", s.handleUpdateGoal)
	mux.HandleFunc("PUT /api/categories", s.handleSetCategory)
	mux.HandleFunc("POST /api/actions", s.handleAction)
	mux.HandleFunc("DELETE /api/data", s.handleClearAllData)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.RequestIDMiddleware(logger)(log.AccessLog(s.withSecurity(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurity sets security headers, flags suspicious requests and rate
// limits everything that changes state.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r, s.metrics)
		logger := log.FromContext(r.Context())

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			NewJSONResponse().
				Status(http.StatusTooManyRequests).
				Body(errorResponse{Error: "rate limit exceeded", Code: "rate_limited", RequestID: log.RequestID(r.Context())}).
				Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
