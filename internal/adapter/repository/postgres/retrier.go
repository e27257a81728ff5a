package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// Transient error codes worth retrying: deadlock detected and
// serialization failure.
const (
	pgErrDeadlock      = "40P01"
	pgErrSerialization = "40001"
)

// Retrier re-runs single-statement operations that hit a transient
// PostgreSQL failure. Statements running inside an explicit transaction
// must not go through it: a deadlock aborts the whole transaction, so
// the caller has to restart from Begin instead of replaying one
// statement.
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsed      time.Duration
	logger          *slog.Logger
}

// NewRetrier creates a Retrier with default backoff settings.
func NewRetrier() *Retrier {
	return &Retrier{
		maxAttempts:     3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     time.Second,
		maxElapsed:      10 * time.Second,
		logger:          slog.Default(),
	}
}

// Retry runs op, backing off exponentially while it keeps failing with
// a transient error. Any other error is returned immediately.
func (r *Retrier) Retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsed

	attempts := 0

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		if !transientPgError(err) {
			return backoff.Permanent(err)
		}

		attempts++
		if attempts > r.maxAttempts {
			return backoff.Permanent(err)
		}

		r.logger.Warn("transient database error, retrying",
			"error", err,
			"attempt", attempts,
		)

		return err
	}, backoff.WithContext(b, ctx))
}

func transientPgError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrDeadlock || pgErr.Code == pgErrSerialization
	}

	return false
}
