package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID        string          `json:"id"`
	PublicRef string          `json:"public_ref"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response. The
// principal id is deliberately not exposed.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:        w.ID,
		PublicRef: w.PublicRef,
		Balance:   w.Balance,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// WalletsFromDomain converts domain wallets to responses.
func WalletsFromDomain(wallets []*domain.Wallet) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// BalanceResponse carries a balance and its display equivalent.
type BalanceResponse struct {
	WalletID        string          `json:"wallet_id"`
	Balance         decimal.Decimal `json:"balance"`
	Asset           string          `json:"asset"`
	Equivalent      decimal.Decimal `json:"equivalent,omitempty"`
	DisplayCurrency string          `json:"display_currency,omitempty"`
}

// BalanceFromResult converts a balance read to a response.
func BalanceFromResult(b *usecase.BalanceResult) *BalanceResponse {
	return &BalanceResponse{
		WalletID:        b.WalletID,
		Balance:         b.Balance,
		Asset:           b.Asset,
		Equivalent:      b.Equivalent,
		DisplayCurrency: b.DisplayCurrency,
	}
}

// TransactionResponse represents a ledger record in API responses.
type TransactionResponse struct {
	ID              string          `json:"id"`
	WalletID        string          `json:"wallet_id"`
	CorrelationID   string          `json:"correlation_id"`
	Counterparty    string          `json:"counterparty"`
	CounterpartyVia string          `json:"counterparty_via"`
	Amount          decimal.Decimal `json:"amount"`
	SourceCurrency  string          `json:"source_currency"`
	TargetCurrency  string          `json:"target_currency"`
	Rate            decimal.Decimal `json:"rate"`
	SettlementRef   *string         `json:"settlement_ref,omitempty"`
	Status          string          `json:"status"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		WalletID:        t.WalletID,
		CorrelationID:   t.CorrelationID,
		Counterparty:    t.Counterparty.Value,
		CounterpartyVia: string(t.Counterparty.Kind),
		Amount:          t.Amount,
		SourceCurrency:  t.SourceCurrency,
		TargetCurrency:  t.TargetCurrency,
		Rate:            t.Rate,
		SettlementRef:   t.SettlementRef,
		Status:          string(t.Status),
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// TransferResponse represents a completed internal transfer: both
// legs, joined by the correlation id.
type TransferResponse struct {
	CorrelationID string               `json:"correlation_id"`
	Debit         *TransactionResponse `json:"debit"`
	Credit        *TransactionResponse `json:"credit"`
}

// TransferFromResult converts a transfer result to a response.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		CorrelationID: r.CorrelationID,
		Debit:         TransactionFromDomain(r.Debit),
		Credit:        TransactionFromDomain(r.Credit),
	}
}

// ReconciliationResponse represents one wallet's reconciliation check.
type ReconciliationResponse struct {
	WalletID          string          `json:"wallet_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	LastChecked       time.Time       `json:"last_checked"`
}

// ReconciliationFromResult converts a reconciliation result.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		WalletID:          r.WalletID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse represents a full reconciliation run.
type ReconciliationReportResponse struct {
	TotalWallets      int                       `json:"total_wallets"`
	ReconciledWallets int                       `json:"reconciled_wallets"`
	Discrepancies     []*ReconciliationResponse `json:"discrepancies"`
	StalePending      []*TransactionResponse    `json:"stale_pending"`
	CheckedAt         time.Time                 `json:"checked_at"`
}

// ReportFromResult converts a reconciliation report.
func ReportFromResult(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromResult(d)
	}

	return &ReconciliationReportResponse{
		TotalWallets:      r.TotalWallets,
		ReconciledWallets: r.ReconciledWallets,
		Discrepancies:     discrepancies,
		StalePending:      TransactionsFromDomain(r.StalePending),
		CheckedAt:         r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
