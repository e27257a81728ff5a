package usecase

import (
	"context"

	"github.com/novapay/remit/internal/domain"
)

// TransactionUseCase handles ledger history queries. Balances are
// always read from the wallet store, never re-derived from this list.
type TransactionUseCase struct {
	txnRepo TransactionRepository
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(txnRepo TransactionRepository) *TransactionUseCase {
	return &TransactionUseCase{txnRepo: txnRepo}
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByID(ctx, id)
}

// GetByCorrelation retrieves the record pair of a two-sided transfer.
func (uc *TransactionUseCase) GetByCorrelation(ctx context.Context, correlationID string) ([]*domain.Transaction, error) {
	return uc.txnRepo.GetByCorrelation(ctx, correlationID)
}

// ListByWalletInput represents input for listing wallet history.
type ListByWalletInput struct {
	WalletID string
	Limit    int
	Offset   int
}

// ListByWallet lists a wallet's transactions newest first.
func (uc *TransactionUseCase) ListByWallet(ctx context.Context, input ListByWalletInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.txnRepo.ListByWallet(ctx, input.WalletID, limit, offset)
}
