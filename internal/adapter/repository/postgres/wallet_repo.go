package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// WalletRepository implements usecase.WalletRepository on PostgreSQL.
type WalletRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool, retrier: NewRetrier()}
}

// Create inserts a wallet. The unique index on principal_id enforces
// one wallet per principal.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wallets (id, principal_id, public_ref, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		wallet.ID,
		wallet.PrincipalID,
		wallet.PublicRef,
		decimalToNumeric(wallet.Balance),
		wallet.Version,
		timeToPgTimestamptz(wallet.CreatedAt),
		timeToPgTimestamptz(wallet.UpdatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrWalletExists
		}

		return err
	}

	return nil
}

const walletColumns = `id, principal_id, public_ref, balance, version, created_at, updated_at`

// GetByID fetches a wallet by its id.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)

	return scanWallet(row)
}

// GetByPrincipal fetches the wallet owned by a principal.
func (r *WalletRepository) GetByPrincipal(ctx context.Context, principalID string) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE principal_id = $1`, principalID)

	return scanWallet(row)
}

// GetByIDsForUpdate locks and returns the given wallets inside tx.
// Rows are locked in ascending id order so concurrent settlements
// acquire locks in the same total order.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	q := resolveQuerier(r.pool, tx)

	rows, err := q.Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wallets := make([]*domain.Wallet, 0, len(ids))

	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}

		wallets = append(wallets, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(wallets) != len(ids) {
		return nil, domain.ErrWalletNotFound
	}

	return wallets, nil
}

// ApplyDelta atomically adds delta to the stored balance. The guard in
// the WHERE clause rejects any update that would drive the balance
// negative, without a prior read. Pool-level calls retry on transient
// errors; inside a caller's transaction a deadlock has to surface so
// the whole transaction can be restarted.
func (r *WalletRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	q := resolveQuerier(r.pool, tx)

	var balance pgtype.Numeric

	update := func() error {
		return q.QueryRow(ctx, `
			UPDATE wallets
			SET balance = balance + $2, version = version + 1, updated_at = $3
			WHERE id = $1 AND balance + $2 >= 0
			RETURNING balance`,
			id, decimalToNumeric(delta), timeToPgTimestamptz(updatedAt),
		).Scan(&balance)
	}

	var err error
	if tx == nil {
		err = r.retrier.Retry(ctx, update)
	} else {
		err = update()
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, r.classifyRejectedDelta(ctx, q, id)
		}

		return decimal.Zero, err
	}

	return numericToDecimal(balance), nil
}

// classifyRejectedDelta tells a missing wallet apart from an
// insufficient balance after a guarded update matched no row.
func (r *WalletRepository) classifyRejectedDelta(ctx context.Context, q querier, id string) error {
	var exists bool

	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}

	if !exists {
		return domain.ErrWalletNotFound
	}

	return domain.ErrInsufficientFunds
}

// UpdateBalance overwrites the balance of a wallet already locked by
// the caller's transaction.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	q := resolveQuerier(r.pool, tx)

	tag, err := q.Exec(ctx, `
		UPDATE wallets
		SET balance = $2, version = version + 1, updated_at = $3
		WHERE id = $1`,
		id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

// List returns wallets ordered by creation time.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		ORDER BY created_at
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet

	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}

		wallets = append(wallets, w)
	}

	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		w                    domain.Wallet
		balance              pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(&w.ID, &w.PrincipalID, &w.PublicRef, &balance, &w.Version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	w.Balance = numericToDecimal(balance)
	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time

	return &w, nil
}
