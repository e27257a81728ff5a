package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novapay/remit/internal/domain"
)

func newTestConverter(t *testing.T, maxStaleness time.Duration) *Converter {
	t.Helper()

	c, err := New(context.Background(), Config{
		Source: NewStaticQuoteServiceWith(map[string]decimal.Decimal{
			"KES/XLM": decimal.RequireFromString("0.0083333333"),
			"XLM/USD": decimal.RequireFromString("0.12"),
		}),
		Pairs:        [][2]string{{"KES", "XLM"}, {"XLM", "USD"}},
		MaxStaleness: maxStaleness,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)

	return c
}

func TestConverter_Rate(t *testing.T) {
	c := newTestConverter(t, time.Minute)

	t.Run("published pair", func(t *testing.T) {
		rate, err := c.Rate("KES", "XLM")
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.RequireFromString("0.0083333333")))
	})

	t.Run("normalizes case and spacing", func(t *testing.T) {
		rate, err := c.Rate(" kes ", "xlm")
		require.NoError(t, err)
		assert.True(t, rate.IsPositive())
	})

	t.Run("identity pair", func(t *testing.T) {
		rate, err := c.Rate("XLM", "XLM")
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	})

	t.Run("inverse fallback", func(t *testing.T) {
		// USD/XLM is not published; the inverse of XLM/USD serves it.
		rate, err := c.Rate("USD", "XLM")
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromInt(1).Div(decimal.RequireFromString("0.12"))))
	})

	t.Run("unsupported pair", func(t *testing.T) {
		_, err := c.Rate("GBP", "XLM")
		assert.ErrorIs(t, err, domain.ErrUnsupportedCurrencyPair)
	})
}

func TestConverter_Rate_StaleSnapshot(t *testing.T) {
	c := newTestConverter(t, time.Nanosecond)

	time.Sleep(time.Millisecond)

	_, err := c.Rate("KES", "XLM")
	assert.ErrorIs(t, err, domain.ErrStaleRates)

	// Identity conversion needs no snapshot.
	rate, err := c.Rate("XLM", "XLM")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

type failingQuoteService struct {
	calls int
}

func (s *failingQuoteService) Rate(context.Context, string, string, time.Time) (decimal.Decimal, error) {
	s.calls++
	return decimal.Zero, errors.New("quote provider down")
}

func TestConverter_Refresh_KeepsPreviousSnapshotOnFailure(t *testing.T) {
	c := newTestConverter(t, time.Minute)
	c.source = &failingQuoteService{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Refresh(ctx)
	require.Error(t, err)

	// The old snapshot still serves until it ages out.
	rate, err := c.Rate("KES", "XLM")
	require.NoError(t, err)
	assert.True(t, rate.IsPositive())
}

func TestConverter_New_PrimesDefaultCorridorsFromStaticSource(t *testing.T) {
	// The default server wiring primes every supported currency against
	// the settlement asset in both directions. The static table only
	// publishes one direction per corridor, so Refresh must serve the
	// other through the inverse instead of failing the prime.
	currencies := []string{"KES", "UGX", "TZS", "NGN", "USD", "EUR"}
	pairs := make([][2]string, 0, len(currencies)*2)
	for _, cur := range currencies {
		pairs = append(pairs, [2]string{cur, "XLM"}, [2]string{"XLM", cur})
	}

	c, err := New(context.Background(), Config{
		Source:       NewStaticQuoteService(),
		Pairs:        pairs,
		MaxStaleness: time.Minute,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)

	for _, cur := range currencies {
		fwd, err := c.Rate(cur, "XLM")
		require.NoError(t, err, "%s/XLM", cur)
		assert.True(t, fwd.IsPositive())

		inv, err := c.Rate("XLM", cur)
		require.NoError(t, err, "XLM/%s", cur)
		assert.True(t, inv.IsPositive())
	}

	// XLM/UGX is unpublished; it must come back as the inverse of the
	// published UGX/XLM quote.
	ugx, err := c.Rate("UGX", "XLM")
	require.NoError(t, err)
	inv, err := c.Rate("XLM", "UGX")
	require.NoError(t, err)
	assert.True(t, inv.Equal(decimal.NewFromInt(1).Div(ugx)))
}

func TestConverter_Refresh_FailsFastWhenPairUnpublishedBothWays(t *testing.T) {
	start := time.Now()

	_, err := New(context.Background(), Config{
		Source: NewStaticQuoteServiceWith(map[string]decimal.Decimal{
			"KES/XLM": decimal.RequireFromString("0.0083333333"),
		}),
		Pairs:  [][2]string{{"KES", "XLM"}, {"GBP", "XLM"}, {"XLM", "GBP"}},
		Logger: zerolog.Nop(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPublishedRate)

	// Unpublished is permanent, not transient: no backoff loop.
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestConverter_New_RejectsNonPositiveRate(t *testing.T) {
	_, err := New(context.Background(), Config{
		Source: NewStaticQuoteServiceWith(map[string]decimal.Decimal{
			"KES/XLM": decimal.Zero,
		}),
		Pairs:  [][2]string{{"KES", "XLM"}},
		Logger: zerolog.Nop(),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrencyPair)
}
