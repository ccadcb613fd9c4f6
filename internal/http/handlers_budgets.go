package http

import (
	"net/http"

	"fintrack/internal/services"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.BudgetInput
	if !decodeJSON(w, r, &in) {
		return
	}

	b, err := s.svc.Budgets.Create(r.Context(), owner, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	budgets, err := s.svc.Budgets.List(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(budgets))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	b, err := s.svc.Budgets.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.BudgetInput
	if !decodeJSON(w, r, &in) {
		return
	}

	b, err := s.svc.Budgets.Update(r.Context(), owner, r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshBudget recomputes spent amounts from the month's
// transactions on demand.
func (s *Server) handleRefreshBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	b, err := s.svc.Budgets.UpdateSpentAmounts(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	status, err := s.svc.Budgets.Status(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
