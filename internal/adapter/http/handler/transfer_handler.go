package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novapay/remit/internal/adapter/http/dto"
)

// TransferHandler handles internal transfer requests.
type TransferHandler struct {
	transferUC TransferService
	txnUC      TransactionService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService, txnUC TransactionService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, txnUC: txnUC}
}

// Create moves value between two wallets.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.transferUC.CreateTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromResult(result))
}

// GetByCorrelation returns every record of a movement.
func (h *TransferHandler) GetByCorrelation(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationID")
	if correlationID == "" {
		writeError(w, http.StatusBadRequest, "missing correlation ID", "")
		return
	}

	txns, err := h.txnUC.GetByCorrelation(r.Context(), correlationID)
	if err != nil {
		writeDomainError(w, "failed to get transfer", err)
		return
	}

	if len(txns) == 0 {
		writeError(w, http.StatusNotFound, "transfer not found", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}
