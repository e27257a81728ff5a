package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/novapay/remit/internal/adapter/http/dto"
)

// ReconciliationHandler exposes operator reconciliation endpoints.
type ReconciliationHandler struct {
	reconUC       ReconciliationService
	pendingCutoff time.Duration
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService, pendingCutoff time.Duration) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC, pendingCutoff: pendingCutoff}
}

// ReconcileWallet checks one wallet's balance against its records.
func (h *ReconciliationHandler) ReconcileWallet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	result, err := h.reconUC.ReconcileWallet(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to reconcile wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}

// Report runs a full reconciliation pass.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.GenerateReport(r.Context(), h.pendingCutoff)
	if err != nil {
		writeDomainError(w, "failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromResult(report))
}
