package handler

import (
	"context"
	"time"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
)

// Service interfaces implemented by the use cases. Handlers depend on
// these rather than the concrete types so tests can stub them.

// WalletService exposes wallet operations.
type WalletService interface {
	CreateWallet(ctx context.Context, principalID string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id string) (*domain.Wallet, error)
	GetWalletByPrincipal(ctx context.Context, principalID string) (*domain.Wallet, error)
	GetBalance(ctx context.Context, walletID, displayCurrency string) (*usecase.BalanceResult, error)
	ListWallets(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// TransferService exposes internal transfer operations.
type TransferService interface {
	CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*usecase.TransferResult, error)
}

// FundingService exposes deposit and payout operations.
type FundingService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.Transaction, error)
	Payout(ctx context.Context, input usecase.PayoutInput) (*domain.Transaction, error)
}

// TransactionService exposes ledger record lookups.
type TransactionService interface {
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetByCorrelation(ctx context.Context, correlationID string) ([]*domain.Transaction, error)
	ListByWallet(ctx context.Context, input usecase.ListByWalletInput) ([]*domain.Transaction, error)
}

// ReconciliationService exposes operator reconciliation operations.
type ReconciliationService interface {
	ReconcileWallet(ctx context.Context, walletID string) (*usecase.ReconciliationResult, error)
	GenerateReport(ctx context.Context, pendingCutoff time.Duration) (*usecase.ReconciliationReport, error)
}
