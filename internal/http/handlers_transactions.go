package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.TransactionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	tx, err := s.svc.Transactions.Create(r.Context(), owner, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		applog.NewFields().WithOwner(owner).WithOperation(applog.OpCreate).ToSlice()...)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := services.TransactionFilter{
		OwnerID:        owner,
		Category:       q.Get("category"),
		Type:           core.TransactionType(q.Get("type")),
		IncludeDeleted: q.Get("includeDeleted") == "true",
	}
	var err error
	if filter.Start, err = queryDate(r, "start", filter.Start); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		return
	}
	if filter.End, err = queryDate(r, "end", filter.End); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		return
	}

	txs, err := s.svc.Transactions.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.TransactionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	tx, err := s.svc.Transactions.Update(r.Context(), owner, r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}
