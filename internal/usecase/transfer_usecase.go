package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/infrastructure/metrics"
)

// TransferUseCase orchestrates internal wallet-to-wallet transfers.
//
// A transfer produces two ledger records sharing a correlation id (one
// debit, one credit) that reach terminal state together or not at all.
// The pending pair is committed before settlement so a rejected
// transfer still leaves two failed records behind; the balance
// movement and both terminal-state writes then share one database
// transaction with the wallet rows locked in sorted-id order.
type TransferUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    TransactionRepository
	outboxRepo OutboxRepository
	rates      RateConverter
	cache      Cache
	idGen      IDGenerator
	metrics    *metrics.Metrics
	asset      string
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	rates RateConverter,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
	settlementAsset string,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		outboxRepo: outboxRepo,
		rates:      rates,
		cache:      cache,
		idGen:      idGen,
		metrics:    m,
		asset:      settlementAsset,
	}
}

// CreateTransferInput represents input for an internal transfer.
// Amount is denominated in SourceCurrency; when that differs from the
// settlement asset the converted amount is fixed into the records at
// creation time and never re-quoted.
type CreateTransferInput struct {
	FromWalletID   string
	ToWalletID     string
	Amount         decimal.Decimal
	SourceCurrency string
	RecipientEmail string
}

// TransferResult is the outcome of a successful transfer.
type TransferResult struct {
	CorrelationID string
	Debit         *domain.Transaction
	Credit        *domain.Transaction
}

// CreateTransfer moves value between two wallets.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*TransferResult, error) {
	start := time.Now()

	// 1. Request validation. No state exists yet; failures here are
	// safe to retry after correction.
	if input.FromWalletID == input.ToWalletID {
		return nil, domain.ErrSameWallet
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	source := input.SourceCurrency
	if source == "" {
		source = uc.asset
	}

	if err := domain.ValidateCurrency(source); err != nil {
		return nil, err
	}

	// Fix the rate before any record exists so a slow downstream step
	// can never settle at a different rate than the caller was quoted.
	rate, settleAmount, err := uc.quote(source, input.Amount)
	if err != nil {
		return nil, err
	}

	// Both wallets must exist before any record is created.
	if _, err := uc.walletRepo.GetByID(ctx, input.FromWalletID); err != nil {
		return nil, err
	}

	if _, err := uc.walletRepo.GetByID(ctx, input.ToWalletID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	correlationID := uuid.NewString()

	creditParty := domain.WalletCounterparty(input.ToWalletID)
	if input.RecipientEmail != "" {
		creditParty = domain.EmailCounterparty(input.RecipientEmail)
	}

	debit := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		WalletID:       input.FromWalletID,
		CorrelationID:  correlationID,
		Counterparty:   creditParty,
		Amount:         settleAmount.Neg(),
		SourceCurrency: source,
		TargetCurrency: uc.asset,
		Rate:           rate,
		Status:         domain.TransactionPending,
		CreatedAt:      now,
	}

	credit := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		WalletID:       input.ToWalletID,
		CorrelationID:  correlationID,
		Counterparty:   domain.WalletCounterparty(input.FromWalletID),
		Amount:         settleAmount,
		SourceCurrency: source,
		TargetCurrency: uc.asset,
		Rate:           rate,
		Status:         domain.TransactionPending,
		CreatedAt:      now,
	}

	if err := debit.Validate(); err != nil {
		return nil, err
	}

	if err := credit.Validate(); err != nil {
		return nil, err
	}

	// 2. Commit the pending pair on its own so it survives a rejected
	// settlement.
	if err := uc.createPendingPair(ctx, debit, credit); err != nil {
		return nil, err
	}

	// 3-5. Settle. Once the settlement transaction starts the caller
	// can no longer cancel; the pair runs to a terminal state.
	settleCtx := context.WithoutCancel(ctx)

	if err := uc.settle(settleCtx, debit, credit, settleAmount); err != nil {
		if finalizeErr := uc.finalizePairFailed(settleCtx, debit, credit, err.Error()); finalizeErr != nil {
			// The settlement error is what the caller acts on; the
			// finalize failure rides along for the logs.
			return nil, errors.Join(err, finalizeErr)
		}

		if uc.metrics != nil {
			uc.metrics.TransferFailures.WithLabelValues(errorLabel(err)).Inc()
		}

		return nil, err
	}

	uc.invalidateBalance(settleCtx, input.FromWalletID, input.ToWalletID)

	if uc.metrics != nil {
		uc.metrics.TransfersCompleted.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}

	return &TransferResult{CorrelationID: correlationID, Debit: debit, Credit: credit}, nil
}

// quote fixes the conversion into settlement-asset units.
func (uc *TransferUseCase) quote(source string, amount decimal.Decimal) (rate, settleAmount decimal.Decimal, err error) {
	if source == uc.asset {
		return decimal.NewFromInt(1), amount, nil
	}

	rate, err = uc.rates.Rate(source, uc.asset)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return rate, amount.Mul(rate), nil
}

func (uc *TransferUseCase) createPendingPair(ctx context.Context, debit, credit *domain.Transaction) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.txnRepo.CreatePending(ctx, tx, debit); err != nil {
		return err
	}

	if err := uc.txnRepo.CreatePending(ctx, tx, credit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// settle applies both balance deltas and finalizes both records inside
// one database transaction. The wallet rows are locked in sorted-id
// order regardless of direction (deadlock prevention); a failure at
// any point rolls everything back, so a debit can never survive
// without its matching credit.
func (uc *TransferUseCase) settle(ctx context.Context, debit, credit *domain.Transaction, amount decimal.Decimal) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	walletIDs := []string{debit.WalletID, credit.WalletID}
	sort.Strings(walletIDs)

	wallets, err := uc.walletRepo.GetByIDsForUpdate(txCtx, tx, walletIDs)
	if err != nil {
		return err
	}

	if len(wallets) != len(walletIDs) {
		return domain.ErrWalletNotFound
	}

	byID := make(map[string]*domain.Wallet, len(wallets))
	for _, w := range wallets {
		byID[w.ID] = w
	}

	from := byID[debit.WalletID]
	to := byID[credit.WalletID]

	if err := from.ValidateDebit(amount); err != nil {
		return err
	}

	now := time.Now().UTC()

	if err := uc.walletRepo.UpdateBalance(txCtx, tx, from.ID, from.ApplyDebit(amount), now); err != nil {
		return err
	}

	if err := uc.walletRepo.UpdateBalance(txCtx, tx, to.ID, to.ApplyCredit(amount), now); err != nil {
		return err
	}

	outcome := domain.Completed("")

	if err := uc.txnRepo.Finalize(txCtx, tx, debit.ID, outcome, now); err != nil {
		return err
	}

	if err := uc.txnRepo.Finalize(txCtx, tx, credit.ID, outcome, now); err != nil {
		return err
	}

	if err := uc.emitCompleted(txCtx, tx, debit, now); err != nil {
		return err
	}

	if err := uc.emitCompleted(txCtx, tx, credit, now); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	debit.Status = domain.TransactionCompleted
	debit.CompletedAt = &now
	credit.Status = domain.TransactionCompleted
	credit.CompletedAt = &now

	return nil
}

// finalizePairFailed marks both records failed with the same reason.
// The debit and credit of one correlation id always share a fate.
func (uc *TransferUseCase) finalizePairFailed(ctx context.Context, debit, credit *domain.Transaction, reason string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	outcome := domain.Failed(reason)

	if err := uc.txnRepo.Finalize(ctx, tx, debit.ID, outcome, now); err != nil {
		return err
	}

	if err := uc.txnRepo.Finalize(ctx, tx, credit.ID, outcome, now); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	debit.Status = domain.TransactionFailed
	debit.FailureReason = &reason
	credit.Status = domain.TransactionFailed
	credit.FailureReason = &reason

	return nil
}

func (uc *TransferUseCase) emitCompleted(ctx context.Context, tx Transaction, txn *domain.Transaction, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionCompleted,
		Payload: map[string]any{
			"transaction_id":  txn.ID,
			"wallet_id":       txn.WalletID,
			"correlation_id":  txn.CorrelationID,
			"amount":          txn.Amount.String(),
			"source_currency": txn.SourceCurrency,
			"target_currency": txn.TargetCurrency,
			"counterparty":    txn.Counterparty.Value,
		},
		CreatedAt: now,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *TransferUseCase) invalidateBalance(ctx context.Context, walletIDs ...string) {
	if uc.cache == nil {
		return
	}

	for _, id := range walletIDs {
		_ = uc.cache.Delete(ctx, balanceCacheKey(id))
	}
}

func balanceCacheKey(walletID string) string {
	return "balance:" + walletID
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case domain.IsUserFacing(err):
		return "validation"
	default:
		return "store"
	}
}
