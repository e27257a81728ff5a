package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository on
// PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, wallet_id, correlation_id, counterparty_kind, counterparty_value,
	amount, source_currency, target_currency, rate, settlement_ref, status, failure_reason,
	created_at, completed_at`

// CreatePending inserts a record in the pending state.
func (r *TransactionRepository) CreatePending(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	q := resolveQuerier(r.pool, tx)

	_, err := q.Exec(ctx, `
		INSERT INTO transactions (id, wallet_id, correlation_id, counterparty_kind, counterparty_value,
			amount, source_currency, target_currency, rate, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txn.ID,
		txn.WalletID,
		txn.CorrelationID,
		string(txn.Counterparty.Kind),
		txn.Counterparty.Value,
		decimalToNumeric(txn.Amount),
		txn.SourceCurrency,
		txn.TargetCurrency,
		decimalToNumeric(txn.Rate),
		string(domain.TransactionPending),
		timeToPgTimestamptz(txn.CreatedAt),
	)

	return err
}

// GetByID fetches a record by id.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	return scanTransaction(row)
}

// GetByCorrelation returns every record sharing a correlation id, the
// debit leg first.
func (r *TransactionRepository) GetByCorrelation(ctx context.Context, correlationID string) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE correlation_id = $1
		ORDER BY amount`, correlationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Finalize moves a pending record to a terminal state. The status
// guard makes completion happen at most once; a second call, or a call
// against an already-terminal record, reports ErrInvalidTransition.
func (r *TransactionRepository) Finalize(ctx context.Context, tx usecase.Transaction, id string, outcome domain.Outcome, completedAt time.Time) error {
	q := resolveQuerier(r.pool, tx)

	var reason *string
	if outcome.Reason != "" {
		reason = &outcome.Reason
	}

	tag, err := q.Exec(ctx, `
		UPDATE transactions
		SET status = $2, settlement_ref = $3, failure_reason = $4, completed_at = $5
		WHERE id = $1 AND status = $6`,
		id,
		string(outcome.Status),
		outcome.SettlementRef,
		reason,
		timeToPgTimestamptz(completedAt),
		string(domain.TransactionPending),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}

		if !exists {
			return domain.ErrTransactionNotFound
		}

		return domain.ErrInvalidTransition
	}

	return nil
}

// ListByWallet returns a wallet's records newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListPendingBefore returns records still pending past the cutoff,
// oldest first. Reconciliation uses it to surface stuck movements.
func (r *TransactionRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`,
		string(domain.TransactionPending), timeToPgTimestamptz(cutoff), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// SumCompletedByWallet returns the sum of signed amounts over the
// wallet's completed records.
func (r *TransactionRepository) SumCompletedByWallet(ctx context.Context, walletID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE wallet_id = $1 AND status = $2`,
		walletID, string(domain.TransactionCompleted),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txns = append(txns, t)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                      domain.Transaction
		kind, value            string
		amount, rate           pgtype.Numeric
		createdAt, completedAt pgtype.Timestamptz
		status                 string
	)

	err := row.Scan(
		&t.ID, &t.WalletID, &t.CorrelationID, &kind, &value,
		&amount, &t.SourceCurrency, &t.TargetCurrency, &rate,
		&t.SettlementRef, &status, &t.FailureReason,
		&createdAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	t.Counterparty = domain.Counterparty{Kind: domain.CounterpartyKind(kind), Value: value}
	t.Amount = numericToDecimal(amount)
	t.Rate = numericToDecimal(rate)
	t.Status = domain.TransactionStatus(status)
	t.CreatedAt = createdAt.Time

	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}

	return &t, nil
}
