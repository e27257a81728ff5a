// Package rates provides the currency conversion table used to fix
// exchange rates into ledger records at creation time.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
)

// QuoteService is the external feed publishing rates for currency
// pairs at a point in time.
type QuoteService interface {
	Rate(ctx context.Context, from, to string, at time.Time) (decimal.Decimal, error)
}

// Converter serves conversion rates from an in-memory snapshot. Rate
// never blocks; the snapshot is refreshed out of band and a lookup
// against an expired snapshot fails rather than serving a quote older
// than the staleness bound.
type Converter struct {
	mu           sync.RWMutex
	table        map[string]decimal.Decimal
	refreshedAt  time.Time
	maxStaleness time.Duration
	source       QuoteService
	pairs        [][2]string
	logger       zerolog.Logger
}

// Config for Converter.
type Config struct {
	Source       QuoteService
	Pairs        [][2]string
	MaxStaleness time.Duration
	Logger       zerolog.Logger
}

// New creates a Converter and primes the snapshot from the source.
func New(ctx context.Context, cfg Config) (*Converter, error) {
	if cfg.MaxStaleness <= 0 {
		cfg.MaxStaleness = 60 * time.Second
	}

	c := &Converter{
		table:        make(map[string]decimal.Decimal),
		maxStaleness: cfg.MaxStaleness,
		source:       cfg.Source,
		pairs:        cfg.Pairs,
		logger:       cfg.Logger,
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// Rate returns the conversion rate for a currency pair. Unknown pairs
// fail with domain.ErrUnsupportedCurrencyPair; a snapshot past the
// staleness bound fails with domain.ErrStaleRates.
func (c *Converter) Rate(from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if time.Since(c.refreshedAt) > c.maxStaleness {
		return decimal.Zero, domain.ErrStaleRates
	}

	if rate, ok := c.table[pairKey(from, to)]; ok {
		return rate, nil
	}

	// Fall back to the inverse of the published opposite direction.
	if rate, ok := c.table[pairKey(to, from)]; ok && !rate.IsZero() {
		return decimal.NewFromInt(1).Div(rate), nil
	}

	return decimal.Zero, fmt.Errorf("%w: %s/%s", domain.ErrUnsupportedCurrencyPair, from, to)
}

// Refresh pulls every configured pair from the quote service and swaps
// the snapshot atomically. Transient fetch failures retry with
// backoff; a pair the source does not publish at all is skipped as
// long as the opposite direction made it into the snapshot, since Rate
// serves such pairs through the inverse.
func (c *Converter) Refresh(ctx context.Context) error {
	now := time.Now().UTC()
	fresh := make(map[string]decimal.Decimal, len(c.pairs))

	var unpublished [][2]string

	for _, pair := range c.pairs {
		from, to := pair[0], pair[1]

		var rate decimal.Decimal

		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = 10 * time.Second

		err := backoff.Retry(func() error {
			var err error
			rate, err = c.source.Rate(ctx, from, to, now)
			if errors.Is(err, ErrNoPublishedRate) {
				return backoff.Permanent(err)
			}
			return err
		}, backoff.WithContext(b, ctx))
		if err != nil {
			if errors.Is(err, ErrNoPublishedRate) {
				unpublished = append(unpublished, pair)
				continue
			}

			return fmt.Errorf("failed to refresh rate %s/%s: %w", from, to, err)
		}

		if rate.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: non-positive rate for %s/%s", domain.ErrUnsupportedCurrencyPair, from, to)
		}

		fresh[pairKey(from, to)] = rate
	}

	for _, pair := range unpublished {
		if _, ok := fresh[pairKey(pair[1], pair[0])]; !ok {
			return fmt.Errorf("failed to refresh rate %s/%s: %w", pair[0], pair[1], ErrNoPublishedRate)
		}
	}

	c.mu.Lock()
	c.table = fresh
	c.refreshedAt = now
	c.mu.Unlock()

	return nil
}

// Start refreshes the snapshot on a fixed interval until ctx is done.
func (c *Converter) Start(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn().Err(err).Msg("rate refresh failed, serving previous snapshot")
			}
		}
	}
}

func pairKey(from, to string) string {
	return from + "/" + to
}
