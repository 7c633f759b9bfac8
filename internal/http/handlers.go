package http

import (
	"net/http"

	"budgetweek/internal/core"
	"budgetweek/internal/log"
	"budgetweek/internal/services"
	"budgetweek/internal/week"
)

// respond writes the snapshot an action produced, or its error.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, action string, snap *services.Snapshot, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Action served", log.FieldAction, action)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budget.Snapshot(r.Context())
	s.respond(w, r, "state", snap, err)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budget.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Dashboard)
}

type monthWeeksResponse struct {
	Year  int                    `json:"year"`
	Month int                    `json:"month"`
	Weeks []week.OperationalWeek `json:"weeks"`
}

func (s *Server) handleMonthWeeks(w http.ResponseWriter, r *http.Request) {
	cal := s.budget.Calculator()
	p, err := ParseMonthParams(r.URL.Query(), cal.Today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, monthWeeksResponse{
		Year:  p.Year,
		Month: p.Month,
		Weeks: cal.MonthWeeks(p.Year, p.Month),
	})
}

func (s *Server) handleCurrentWeek(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.budget.Calculator().CurrentWeekInfo())
}

type biweeklyResponse struct {
	Year    int           `json:"year"`
	Month   int           `json:"month"`
	Periods week.Schedule `json:"periods"`
}

func (s *Server) handleBiweeklySchedule(w http.ResponseWriter, r *http.Request) {
	cal := s.budget.Calculator()
	p, err := ParseMonthParams(r.URL.Query(), cal.Today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, biweeklyResponse{
		Year:    p.Year,
		Month:   p.Month,
		Periods: cal.BiweeklySchedule(p.Year, p.Month),
	})
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.AddIncome(r.Context(), req.Amount, sanitizeInput(req.Description))
	s.respond(w, r, services.ActionAddIncome, snap, err)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.AddExpense(r.Context(), req.Amount, sanitizeInput(req.Category), sanitizeInput(req.Description))
	s.respond(w, r, services.ActionAddExpense, snap, err)
}

// handleDeleteTransactionAt deletes by list position, ?index=N.
func (s *Server) handleDeleteTransactionAt(w http.ResponseWriter, r *http.Request) {
	index, err := queryIndex(r.URL.Query(), "index")
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.DeleteTransaction(r.Context(), index)
	s.respond(w, r, services.ActionDeleteTransaction, snap, err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budget.DeleteTransactionByID(r.Context(), r.PathValue("id"))
	s.respond(w, r, services.ActionDeleteTransaction, snap, err)
}

func (s *Server) handleAddBill(w http.ResponseWriter, r *http.Request) {
	var spec services.BillSpec
	if err := decodeJSON(w, r, &spec); err != nil {
		writeError(w, r, err)
		return
	}
	spec.Name = sanitizeInput(spec.Name)
	snap, err := s.budget.AddBill(r.Context(), spec)
	s.respond(w, r, "addBill", snap, err)
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budget.PayBill(r.Context(), r.PathValue("id"))
	s.respond(w, r, "payBill", snap, err)
}

func (s *Server) handleMarkOverdue(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budget.MarkOverdue(r.Context(), r.PathValue("id"))
	s.respond(w, r, "markOverdue", snap, err)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budget.DeleteBillByID(r.Context(), r.PathValue("id"))
	s.respond(w, r, services.ActionDeleteBill, snap, err)
}

func (s *Server) handleToggleWorkDay(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.ToggleWorkDay(r.Context(), date)
	s.respond(w, r, "toggleWorkDay", snap, err)
}

func (s *Server) handleDailyIncome(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.AddDailyIncome(r.Context(), date, req.Amount)
	s.respond(w, r, "addDailyIncome", snap, err)
}

func (s *Server) handleModifyBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.ModifyBalance(r.Context(), req.Balance)
	s.respond(w, r, services.ActionModifyBalance, snap, err)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.UpdateGoal(r.Context(), r.PathValue("type"), req.Goal)
	s.respond(w, r, services.ActionUpdateGoal, snap, err)
}

func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	var c core.BudgetCategory
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.Name = sanitizeInput(c.Name)
	snap, err := s.budget.SetCategory(r.Context(), c)
	s.respond(w, r, "setCategory", snap, err)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req services.ActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.budget.Dispatch(r.Context(), req)
	s.respond(w, r, req.Action, snap, err)
}

func (s *Server) handleClearAllData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budget.ClearAllData(r.Context())
	s.respond(w, r, services.ActionClearAllData, snap, err)
}
