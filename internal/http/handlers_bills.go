package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.BillInput
	if !decodeJSON(w, r, &in) {
		return
	}

	b, err := s.svc.Bills.Create(r.Context(), owner, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("activeOnly") == "true"
	bills, err := s.svc.Bills.List(r.Context(), owner, activeOnly)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(bills))
}

func (s *Server) handleUpcomingBills(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	days, err := queryInt(r, "days", 0)
	if err != nil || days < 0 {
		writeError(w, r, http.StatusBadRequest, "invalid days parameter")
		return
	}
	bills, err := s.svc.Bills.Upcoming(r.Context(), owner, days)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(bills))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	b, err := s.svc.Bills.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in services.BillInput
	if !decodeJSON(w, r, &in) {
		return
	}

	b, err := s.svc.Bills.Update(r.Context(), owner, r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Bills.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeactivateBill(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	b, err := s.svc.Bills.Deactivate(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, b)
}

type payBillRequest struct {
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	TransactionID string `json:"transactionId,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req payBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// No amount means pay the scheduled amount in full.
	var amount core.Money
	if req.Amount != "" {
		var err error
		amount, err = core.ParseAmount(req.Amount)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	b, err := s.svc.Bills.MarkPaid(r.Context(), owner, r.PathValue("id"), core.PaymentInput{
		Amount:        amount,
		Method:        req.Method,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateCaches()
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Bill paid",
		applog.NewFields().WithOwner(owner).WithOperation(applog.OpPay).ToSlice()...)
	writeJSON(w, http.StatusOK, b)
}
