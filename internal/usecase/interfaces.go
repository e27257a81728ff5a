package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByPrincipal(ctx context.Context, principalID string) (*domain.Wallet, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	// ApplyDelta atomically adds delta to the stored balance, rejecting
	// with domain.ErrInsufficientFunds if the result would go negative.
	// When tx is nil the update runs as its own atomic statement.
	ApplyDelta(ctx context.Context, tx Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// TransactionRepository defines data access for ledger records.
type TransactionRepository interface {
	CreatePending(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByCorrelation(ctx context.Context, correlationID string) ([]*domain.Transaction, error)
	// Finalize moves a pending record to a terminal state. It fails
	// with domain.ErrInvalidTransition unless the record is pending.
	Finalize(ctx context.Context, tx Transaction, id string, outcome domain.Outcome, completedAt time.Time) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error)
	SumCompletedByWallet(ctx context.Context, walletID string) (decimal.Decimal, error)
}

// SagaRepository persists the progress of rail-crossing movements.
type SagaRepository interface {
	Create(ctx context.Context, tx Transaction, saga *domain.TransferSaga) error
	Get(ctx context.Context, correlationID string) (*domain.TransferSaga, error)
	UpdateState(ctx context.Context, tx Transaction, correlationID string, state domain.SagaState, updatedAt time.Time) error
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.TransferSaga, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// SettlementRail submits payment instructions to the external network.
type SettlementRail interface {
	Submit(ctx context.Context, instruction domain.SettlementInstruction) (domain.SettlementOutcome, error)
}

// RateConverter maps a currency pair to a conversion rate. Rate never
// blocks; it reads a snapshot refreshed out of band.
type RateConverter interface {
	Rate(from, to string) (decimal.Decimal, error)
}

// Notifier delivers completion notices to counterparties.
type Notifier interface {
	Notify(ctx context.Context, recipient string, amount decimal.Decimal, currency string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Cached values are read-through
// only and invalidated on every write; the durable store stays the
// sole source of truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request may be retried.
	Release(ctx context.Context, key string) error
}
