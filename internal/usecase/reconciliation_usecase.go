package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
)

// ReconciliationUseCase verifies ledger invariants and resumes
// movements stranded by a crash or an ambiguous rail response.
type ReconciliationUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    TransactionRepository
	sagaRepo   SagaRepository
	logger     zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case.
func NewReconciliationUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo TransactionRepository,
	sagaRepo SagaRepository,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		sagaRepo:   sagaRepo,
		logger:     logger,
	}
}

// ReconciliationResult compares a wallet's stored balance against the
// sum of its completed transaction amounts.
type ReconciliationResult struct {
	WalletID          string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileWallet checks one wallet: its balance must equal the sum of
// signed amounts of its completed transactions, and only those.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, walletID string) (*ReconciliationResult, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	calculated, err := uc.txnRepo.SumCompletedByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	diff := wallet.Balance.Sub(calculated)

	return &ReconciliationResult{
		WalletID:          walletID,
		RecordedBalance:   wallet.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       time.Now().UTC(),
	}, nil
}

// ReconcileAllWallets reconciles every wallet in the system.
func (uc *ReconciliationUseCase) ReconcileAllWallets(ctx context.Context) ([]*ReconciliationResult, error) {
	limit, offset := domain.ValidatePagination(10000, 0)

	wallets, err := uc.walletRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	results := make([]*ReconciliationResult, 0, len(wallets))
	for _, wallet := range wallets {
		result, err := uc.ReconcileWallet(ctx, wallet.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile wallet %s: %w", wallet.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report.
type ReconciliationReport struct {
	TotalWallets      int
	ReconciledWallets int
	Discrepancies     []*ReconciliationResult
	StalePending      []*domain.Transaction
	EscalatedSagas    []*domain.TransferSaga
	CheckedAt         time.Time
}

// GenerateReport reconciles all wallets and surfaces movements stuck
// in pending past the cutoff.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context, pendingCutoff time.Duration) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllWallets(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-pendingCutoff)

	stale, err := uc.txnRepo.ListPendingBefore(ctx, cutoff, 1000)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalWallets:  len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		StalePending:  stale,
		CheckedAt:     time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledWallets++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}

// ResumeSagas finishes movements whose outcome is already locally
// known but whose finalize was interrupted, and escalates the rest.
//
// A saga in settled or debit_reversed crashed after the decisive step:
// its transaction can be finalized deterministically. A payout saga
// stuck in debit_applied means the rail never answered; it is reported
// for operator resolution rather than guessed at.
func (uc *ReconciliationUseCase) ResumeSagas(ctx context.Context, staleAfter time.Duration) ([]*domain.TransferSaga, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)

	sagas, err := uc.sagaRepo.ListStale(ctx, cutoff, 100)
	if err != nil {
		return nil, err
	}

	var escalated []*domain.TransferSaga

	for _, saga := range sagas {
		switch saga.State {
		case domain.SagaSettled:
			if err := uc.finishInterrupted(ctx, saga, domain.Completed("")); err != nil {
				return nil, err
			}
		case domain.SagaDebitReversed:
			if err := uc.finishInterrupted(ctx, saga, domain.Failed("reversed after rail rejection")); err != nil {
				return nil, err
			}
		default:
			uc.logger.Warn().
				Str("correlation_id", saga.CorrelationID).
				Str("state", string(saga.State)).
				Msg("saga awaiting rail resolution, escalating")

			escalated = append(escalated, saga)
		}
	}

	return escalated, nil
}

func (uc *ReconciliationUseCase) finishInterrupted(ctx context.Context, saga *domain.TransferSaga, outcome domain.Outcome) error {
	records, err := uc.txnRepo.GetByCorrelation(ctx, saga.CorrelationID)
	if err != nil {
		return err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	for _, record := range records {
		if record.Status != domain.TransactionPending {
			continue
		}

		if err := uc.txnRepo.Finalize(ctx, tx, record.ID, outcome, now); err != nil {
			return err
		}
	}

	if err := uc.sagaRepo.UpdateState(ctx, tx, saga.CorrelationID, domain.SagaFinalized, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
