package http

import (
	"net/http"
)

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := s.svc.Budget()
	if !ok {
		NotFoundError("no budget configured").Write(w)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := ParseBudget(r)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	saved, err := s.svc.SetBudget(r.Context(), b)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(saved).Write(w)
}

func (s *Server) handleClearBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearBudget(r.Context()); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	status, ok, err := s.svc.Status()
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	if !ok {
		NotFoundError("no budget configured").Write(w)
		return
	}
	NewJSONResponse().Body(status).Write(w)
}
