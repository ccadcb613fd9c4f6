package http

import (
	"net/http"

	"fintrack/internal/services"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.GoalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	g, err := s.svc.Goals.Create(r.Context(), owner, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	goals, err := s.svc.Goals.List(r.Context(), owner, includeArchived)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(goals))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	g, err := s.svc.Goals.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.GoalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	g, err := s.svc.Goals.Update(r.Context(), owner, r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.ContributionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	g, err := s.svc.Goals.AddContribution(r.Context(), owner, r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleWithdrawGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.WithdrawalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	g, err := s.svc.Goals.AddWithdrawal(r.Context(), owner, r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleArchiveGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	g, err := s.svc.Goals.Archive(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	progress, err := s.svc.Goals.Progress(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
