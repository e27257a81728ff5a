package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/infrastructure/metrics"
)

// FundingUseCase orchestrates movements that cross the settlement
// rail: deposits from external funding sources (mobile money, airtime
// conversion) and payouts to external rails.
//
// Each movement runs as a persisted saga keyed by correlation id, so a
// crash between the reserve debit and the rail response can be resumed
// or compensated by re-reading the saga state. Deposits call the rail
// before any credit (the rail is the source of truth for arrival);
// payouts reserve funds first so the visible balance never overstates
// what has already left.
type FundingUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    TransactionRepository
	sagaRepo   SagaRepository
	outboxRepo OutboxRepository
	rail       SettlementRail
	rates      RateConverter
	cache      Cache
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	asset      string
}

// NewFundingUseCase creates a new FundingUseCase.
func NewFundingUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo TransactionRepository,
	sagaRepo SagaRepository,
	outboxRepo OutboxRepository,
	rail SettlementRail,
	rates RateConverter,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
	settlementAsset string,
) *FundingUseCase {
	return &FundingUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		sagaRepo:   sagaRepo,
		outboxRepo: outboxRepo,
		rail:       rail,
		rates:      rates,
		cache:      cache,
		idGen:      idGen,
		metrics:    m,
		logger:     logger,
		asset:      settlementAsset,
	}
}

// DepositInput represents an external funding instruction. Amount is
// denominated in Currency (a mobile currency such as KES for M-Pesa or
// airtime conversion); the credited amount is fixed at the quoted rate
// when the record is created.
type DepositInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Currency    string
	PhoneNumber string
}

// PayoutInput represents a payout to an external rail. Amount is in
// settlement-asset units; TargetCurrency is what the recipient gets.
type PayoutInput struct {
	WalletID       string
	Amount         decimal.Decimal
	TargetCurrency string
	PhoneNumber    string
}

// Deposit funds a wallet from an external source. The rail confirms
// arrival before any credit; the wallet is never credited
// speculatively.
func (uc *FundingUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if err := domain.ValidatePhoneNumber(input.PhoneNumber); err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}

	rate, creditAmount, err := uc.quoteToAsset(input.Currency, input.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	correlationID := uuid.NewString()

	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		WalletID:       input.WalletID,
		CorrelationID:  correlationID,
		Counterparty:   domain.ExternalCounterparty(input.PhoneNumber),
		Amount:         creditAmount,
		SourceCurrency: input.Currency,
		TargetCurrency: uc.asset,
		Rate:           rate,
		Status:         domain.TransactionPending,
		CreatedAt:      now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	saga := &domain.TransferSaga{
		CorrelationID: correlationID,
		WalletID:      input.WalletID,
		Direction:     domain.SettlementDeposit,
		State:         domain.SagaPendingCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.createPendingWithSaga(ctx, txn, saga); err != nil {
		return nil, err
	}

	// The rail decides whether money actually arrived.
	outcome, err := uc.rail.Submit(ctx, domain.SettlementInstruction{
		Direction:       domain.SettlementDeposit,
		WalletPublicRef: wallet.PublicRef,
		Amount:          creditAmount,
		Asset:           uc.asset,
		ExternalRef:     input.PhoneNumber,
	})
	if err != nil || outcome.Status == domain.SettlementAmbiguous {
		// Neither success nor failure observed: the record stays
		// pending until reconciliation resolves it.
		uc.observeRail(string(domain.SettlementAmbiguous))
		return txn, domain.ErrRailAmbiguous
	}

	uc.observeRail(string(outcome.Status))

	settleCtx := context.WithoutCancel(ctx)

	if outcome.Status == domain.SettlementRejected {
		if err := uc.finalizeFailed(settleCtx, txn, saga, outcome.Reason); err != nil {
			return nil, err
		}

		return txn, fmt.Errorf("deposit rejected: %s", outcome.Reason)
	}

	if err := uc.creditAndComplete(settleCtx, txn, saga, creditAmount, outcome.Reference); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DepositsCompleted.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}

	return txn, nil
}

// Payout moves value from a wallet to an external rail. Funds are
// reserved before the rail is invoked; a rejection reverses the
// reserve with a retried compensating credit.
func (uc *FundingUseCase) Payout(ctx context.Context, input PayoutInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.TargetCurrency); err != nil {
		return nil, err
	}

	if err := domain.ValidatePhoneNumber(input.PhoneNumber); err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}

	rate, err := uc.rateFromAsset(input.TargetCurrency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	correlationID := uuid.NewString()

	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		WalletID:       input.WalletID,
		CorrelationID:  correlationID,
		Counterparty:   domain.ExternalCounterparty(input.PhoneNumber),
		Amount:         input.Amount.Neg(),
		SourceCurrency: uc.asset,
		TargetCurrency: input.TargetCurrency,
		Rate:           rate,
		Status:         domain.TransactionPending,
		CreatedAt:      now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	saga := &domain.TransferSaga{
		CorrelationID: correlationID,
		WalletID:      input.WalletID,
		Direction:     domain.SettlementPayout,
		State:         domain.SagaPendingCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.createPendingWithSaga(ctx, txn, saga); err != nil {
		return nil, err
	}

	// Reserve funds. The conditional update rejects atomically if the
	// balance would go negative, so concurrent payouts serialize
	// correctly without application locks.
	if _, err := uc.walletRepo.ApplyDelta(ctx, nil, input.WalletID, input.Amount.Neg(), now); err != nil {
		if finalizeErr := uc.finalizeFailed(context.WithoutCancel(ctx), txn, saga, err.Error()); finalizeErr != nil {
			return nil, finalizeErr
		}

		return txn, err
	}

	uc.invalidateBalance(ctx, input.WalletID)

	// Debit applied: the operation must now run to a terminal or
	// compensated state regardless of caller cancellation.
	settleCtx := context.WithoutCancel(ctx)

	if err := uc.markSaga(settleCtx, saga, domain.SagaDebitApplied); err != nil {
		return nil, err
	}

	outcome, err := uc.rail.Submit(settleCtx, domain.SettlementInstruction{
		Direction:       domain.SettlementPayout,
		WalletPublicRef: wallet.PublicRef,
		Amount:          input.Amount,
		Asset:           uc.asset,
		ExternalRef:     input.PhoneNumber,
	})
	if err != nil || outcome.Status == domain.SettlementAmbiguous {
		// The debit stays reserved and the saga stays in
		// debit_applied; reconciliation will resolve it against the
		// rail. Guessing here could double-spend.
		uc.observeRail(string(domain.SettlementAmbiguous))
		return txn, domain.ErrRailAmbiguous
	}

	uc.observeRail(string(outcome.Status))

	if outcome.Status == domain.SettlementRejected {
		if err := uc.compensateDebit(settleCtx, txn, saga, input.Amount); err != nil {
			return nil, err
		}

		if err := uc.finalizeFailed(settleCtx, txn, saga, outcome.Reason); err != nil {
			return nil, err
		}

		return txn, fmt.Errorf("payout rejected: %s", outcome.Reason)
	}

	if err := uc.markSaga(settleCtx, saga, domain.SagaSettled); err != nil {
		return nil, err
	}

	if err := uc.finalizeCompleted(settleCtx, txn, saga, outcome.Reference); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PayoutsCompleted.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}

	return txn, nil
}

func (uc *FundingUseCase) quoteToAsset(currency string, amount decimal.Decimal) (rate, converted decimal.Decimal, err error) {
	if currency == uc.asset {
		return decimal.NewFromInt(1), amount, nil
	}

	rate, err = uc.rates.Rate(currency, uc.asset)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return rate, amount.Mul(rate), nil
}

func (uc *FundingUseCase) rateFromAsset(currency string) (decimal.Decimal, error) {
	if currency == uc.asset {
		return decimal.NewFromInt(1), nil
	}

	return uc.rates.Rate(uc.asset, currency)
}

func (uc *FundingUseCase) createPendingWithSaga(ctx context.Context, txn *domain.Transaction, saga *domain.TransferSaga) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.txnRepo.CreatePending(ctx, tx, txn); err != nil {
		return err
	}

	if err := uc.sagaRepo.Create(ctx, tx, saga); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// creditAndComplete applies the deposit credit and the terminal write
// in the same durability scope.
func (uc *FundingUseCase) creditAndComplete(ctx context.Context, txn *domain.Transaction, saga *domain.TransferSaga, amount decimal.Decimal, ref string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	if _, err := uc.walletRepo.ApplyDelta(ctx, tx, txn.WalletID, amount, now); err != nil {
		return err
	}

	if err := uc.txnRepo.Finalize(ctx, tx, txn.ID, domain.Completed(ref), now); err != nil {
		return err
	}

	if err := uc.sagaRepo.UpdateState(ctx, tx, saga.CorrelationID, domain.SagaFinalized, now); err != nil {
		return err
	}

	if err := uc.emitEvent(ctx, tx, txn, domain.EventTypeTransactionCompleted, now, map[string]any{"settlement_ref": ref}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	saga.State = domain.SagaFinalized
	txn.Status = domain.TransactionCompleted
	txn.CompletedAt = &now
	if ref != "" {
		txn.SettlementRef = &ref
	}

	uc.invalidateBalance(ctx, txn.WalletID)

	return nil
}

func (uc *FundingUseCase) finalizeCompleted(ctx context.Context, txn *domain.Transaction, saga *domain.TransferSaga, ref string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	if err := uc.txnRepo.Finalize(ctx, tx, txn.ID, domain.Completed(ref), now); err != nil {
		return err
	}

	if err := uc.sagaRepo.UpdateState(ctx, tx, saga.CorrelationID, domain.SagaFinalized, now); err != nil {
		return err
	}

	if err := uc.emitEvent(ctx, tx, txn, domain.EventTypeTransactionCompleted, now, map[string]any{"settlement_ref": ref}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	saga.State = domain.SagaFinalized
	txn.Status = domain.TransactionCompleted
	txn.CompletedAt = &now
	if ref != "" {
		txn.SettlementRef = &ref
	}

	return nil
}

func (uc *FundingUseCase) finalizeFailed(ctx context.Context, txn *domain.Transaction, saga *domain.TransferSaga, reason string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	if err := uc.txnRepo.Finalize(ctx, tx, txn.ID, domain.Failed(reason), now); err != nil {
		return err
	}

	if err := uc.sagaRepo.UpdateState(ctx, tx, saga.CorrelationID, domain.SagaFinalized, now); err != nil {
		return err
	}

	if err := uc.emitEvent(ctx, tx, txn, domain.EventTypeTransactionFailed, now, map[string]any{"reason": reason}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	saga.State = domain.SagaFinalized
	txn.Status = domain.TransactionFailed
	txn.FailureReason = &reason

	return nil
}

// compensateDebit reverses a reserve debit after the rail refused the
// payout. The compensation is retried with exponential backoff until
// it succeeds; it is never dropped. If retries are exhausted the saga
// stays in debit_applied and the reconciliation pass escalates it.
func (uc *FundingUseCase) compensateDebit(ctx context.Context, txn *domain.Transaction, saga *domain.TransferSaga, amount decimal.Decimal) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 2 * time.Minute

	err := backoff.Retry(func() error {
		_, err := uc.walletRepo.ApplyDelta(ctx, nil, txn.WalletID, amount, time.Now().UTC())
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		uc.logger.Error().
			Err(err).
			Str("correlation_id", saga.CorrelationID).
			Str("wallet_id", txn.WalletID).
			Msg("compensating credit exhausted retries, left for reconciliation")

		return fmt.Errorf("compensation pending reconciliation: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.CompensationsApplied.Inc()
	}

	uc.invalidateBalance(ctx, txn.WalletID)

	if err := uc.emitEvent(ctx, nil, txn, domain.EventTypeCompensationApplied, time.Now().UTC(), map[string]any{
		"reversal_amount": amount.String(),
	}); err != nil {
		// The money is already back; a lost notification must not
		// undo that.
		uc.logger.Warn().
			Err(err).
			Str("correlation_id", saga.CorrelationID).
			Msg("compensation applied but event not recorded")
	}

	return uc.markSaga(ctx, saga, domain.SagaDebitReversed)
}

func (uc *FundingUseCase) markSaga(ctx context.Context, saga *domain.TransferSaga, state domain.SagaState) error {
	if !saga.CanTransition(state) {
		return domain.ErrInvalidTransition
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	if err := uc.sagaRepo.UpdateState(ctx, tx, saga.CorrelationID, state, now); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	saga.State = state
	saga.UpdatedAt = now

	return nil
}

func (uc *FundingUseCase) emitEvent(ctx context.Context, tx Transaction, txn *domain.Transaction, eventType string, now time.Time, extra map[string]any) error {
	if uc.outboxRepo == nil {
		return nil
	}

	payload := map[string]any{
		"transaction_id":  txn.ID,
		"wallet_id":       txn.WalletID,
		"correlation_id":  txn.CorrelationID,
		"amount":          txn.Amount.String(),
		"source_currency": txn.SourceCurrency,
		"target_currency": txn.TargetCurrency,
		"counterparty":    txn.Counterparty.Value,
	}
	for k, v := range extra {
		payload[k] = v
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *FundingUseCase) invalidateBalance(ctx context.Context, walletID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, balanceCacheKey(walletID))
}

func (uc *FundingUseCase) observeRail(status string) {
	if uc.metrics != nil {
		uc.metrics.RailOutcomes.WithLabelValues(status).Inc()
	}
}
