package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novapay/remit/internal/adapter/http/dto"
	"github.com/novapay/remit/internal/adapter/http/middleware"
	"github.com/novapay/remit/internal/usecase"
)

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC WalletService
	txnUC    TransactionService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService, txnUC TransactionService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC, txnUC: txnUC}
}

// Create provisions a wallet for the calling principal.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal", "")
		return
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), principal)
	if err != nil {
		writeDomainError(w, "failed to create wallet", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(wallet))
}

// GetOwn returns the calling principal's wallet.
func (h *WalletHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal", "")
		return
	}

	wallet, err := h.walletUC.GetWalletByPrincipal(r.Context(), principal)
	if err != nil {
		writeDomainError(w, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Get retrieves a wallet by ID.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// GetBalance returns a wallet's balance, optionally with its
// equivalent in a display currency.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	display := r.URL.Query().Get("display_currency")

	balance, err := h.walletUC.GetBalance(r.Context(), id, display)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromResult(balance))
}

// List lists wallets.
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	wallets, err := h.walletUC.ListWallets(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list wallets", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletsFromDomain(wallets))
}

// ListTransactions lists a wallet's history newest first.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	txns, err := h.txnUC.ListByWallet(r.Context(), usecase.ListByWalletInput{
		WalletID: id,
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}
