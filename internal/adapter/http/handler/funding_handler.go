package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novapay/remit/internal/adapter/http/dto"
	"github.com/novapay/remit/internal/domain"
)

// FundingHandler handles deposit and payout requests.
type FundingHandler struct {
	fundingUC FundingService
}

// NewFundingHandler creates a new FundingHandler.
func NewFundingHandler(fundingUC FundingService) *FundingHandler {
	return &FundingHandler{fundingUC: fundingUC}
}

// Deposit funds a wallet from an external source.
func (h *FundingHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "id")
	if walletID == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.fundingUC.Deposit(r.Context(), req.ToUseCaseInput(walletID))
	if err != nil {
		h.writeFundingError(w, txn, err, "failed to deposit")
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Payout pays a wallet balance out to an external rail.
func (h *FundingHandler) Payout(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "id")
	if walletID == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	var req dto.PayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.fundingUC.Payout(r.Context(), req.ToUseCaseInput(walletID))
	if err != nil {
		h.writeFundingError(w, txn, err, "failed to pay out")
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// writeFundingError distinguishes the ambiguous-rail case, where a
// pending record exists and is returned with 202, from plain failures.
func (h *FundingHandler) writeFundingError(w http.ResponseWriter, txn *domain.Transaction, err error, message string) {
	if errors.Is(err, domain.ErrRailAmbiguous) && txn != nil {
		writeJSON(w, http.StatusAccepted, dto.TransactionFromDomain(txn))
		return
	}

	writeDomainError(w, message, err)
}
