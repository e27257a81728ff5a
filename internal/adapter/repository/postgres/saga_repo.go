package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
)

// SagaRepository implements usecase.SagaRepository on PostgreSQL.
type SagaRepository struct {
	pool *pgxpool.Pool
}

// NewSagaRepository creates a new SagaRepository.
func NewSagaRepository(pool *pgxpool.Pool) *SagaRepository {
	return &SagaRepository{pool: pool}
}

// Create inserts a saga in its initial state.
func (r *SagaRepository) Create(ctx context.Context, tx usecase.Transaction, saga *domain.TransferSaga) error {
	q := resolveQuerier(r.pool, tx)

	_, err := q.Exec(ctx, `
		INSERT INTO transfer_sagas (correlation_id, wallet_id, direction, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		saga.CorrelationID,
		saga.WalletID,
		string(saga.Direction),
		string(saga.State),
		timeToPgTimestamptz(saga.CreatedAt),
		timeToPgTimestamptz(saga.UpdatedAt),
	)

	return err
}

// Get fetches a saga by correlation id.
func (r *SagaRepository) Get(ctx context.Context, correlationID string) (*domain.TransferSaga, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT correlation_id, wallet_id, direction, state, created_at, updated_at
		FROM transfer_sagas
		WHERE correlation_id = $1`, correlationID)

	return scanSaga(row)
}

// UpdateState advances a saga to the next state.
func (r *SagaRepository) UpdateState(ctx context.Context, tx usecase.Transaction, correlationID string, state domain.SagaState, updatedAt time.Time) error {
	q := resolveQuerier(r.pool, tx)

	tag, err := q.Exec(ctx, `
		UPDATE transfer_sagas
		SET state = $2, updated_at = $3
		WHERE correlation_id = $1`,
		correlationID, string(state), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListStale returns unfinalized sagas untouched since the cutoff,
// oldest first. These are the movements a crash left mid-sequence.
func (r *SagaRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.TransferSaga, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT correlation_id, wallet_id, direction, state, created_at, updated_at
		FROM transfer_sagas
		WHERE state <> $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3`,
		string(domain.SagaFinalized), timeToPgTimestamptz(cutoff), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sagas []*domain.TransferSaga

	for rows.Next() {
		s, err := scanSaga(rows)
		if err != nil {
			return nil, err
		}

		sagas = append(sagas, s)
	}

	return sagas, rows.Err()
}

func scanSaga(row pgx.Row) (*domain.TransferSaga, error) {
	var (
		s                    domain.TransferSaga
		direction, state     string
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(&s.CorrelationID, &s.WalletID, &direction, &state, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	s.Direction = domain.SettlementDirection(direction)
	s.State = domain.SagaState(state)
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}
