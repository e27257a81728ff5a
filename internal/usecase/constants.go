package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database
	// transaction. This prevents long-running transactions from
	// blocking tables.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultPendingCutoff is how long a transaction may stay pending
	// before reconciliation treats it as stale.
	DefaultPendingCutoff = 15 * time.Minute
)
