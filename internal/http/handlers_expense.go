package http

import (
	"net/http"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"
	"spendtrack/internal/services"
)

type expenseList struct {
	Expenses []core.ExpenseRecord `json:"expenses"`
	Count    int                  `json:"count"`
	Total    float64              `json:"total"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	records := s.svc.Expenses()
	if q := r.URL.Query(); q.Get("range") != "" || q.Get("start") != "" || q.Get("end") != "" {
		f, err := s.parseFilter(r)
		if err != nil {
			errorFor(r, err).Write(w)
			return
		}
		records = analytics.Filter(records, f, s.svc.Now())
	}
	NewJSONResponse().Body(expenseList{
		Expenses: records,
		Count:    len(records),
		Total:    analytics.Total(records),
	}).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Expense(r.PathValue("id"))
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := ParseExpenseInput(r)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	out, err := s.svc.Add(r.Context(), in, requestConfirmer{accepted: wantsConfirm(r)})
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	writeOutcome(w, out, http.StatusCreated)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := ParseExpenseInput(r)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	out, err := s.svc.Update(r.Context(), r.PathValue("id"), in, requestConfirmer{accepted: wantsConfirm(r)})
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	writeOutcome(w, out, http.StatusOK)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Clear(r.Context()); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// writeOutcome answers a committed change with the record and a cancelled one
// with the warning the client has to accept.
func writeOutcome(w http.ResponseWriter, out services.Outcome, committed int) {
	if out.Cancelled() {
		title, message := "", ""
		if out.Warning != nil {
			title, message = out.Warning.Title, out.Warning.Message
		}
		ConfirmationRequired(title, message).Write(w)
		return
	}
	NewJSONResponse().Status(committed).Body(out.Record).Write(w)
}
