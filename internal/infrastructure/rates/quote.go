package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoPublishedRate marks a pair the source does not quote at all, as
// opposed to a transient fetch failure. Refresh treats it as permanent
// and falls back to the inverse direction when that one is published.
var ErrNoPublishedRate = errors.New("no published rate")

// HTTPQuoteService fetches published rates from a quote provider's
// /rates endpoint.
type HTTPQuoteService struct {
	client  *http.Client
	baseURL string
}

// NewHTTPQuoteService creates a quote client against baseURL.
func NewHTTPQuoteService(baseURL string, timeout time.Duration) *HTTPQuoteService {
	return &HTTPQuoteService{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type rateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}

// Rate fetches the rate for one pair.
func (s *HTTPQuoteService) Rate(ctx context.Context, from, to string, at time.Time) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("at", at.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/rates?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, fmt.Errorf("%w for %s/%s", ErrNoPublishedRate, from, to)
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}

	return body.Rate, nil
}

// StaticQuoteService serves a fixed rate table. Used when no quote
// provider is configured and in tests.
type StaticQuoteService struct {
	rates map[string]decimal.Decimal
}

// NewStaticQuoteService creates a static source with the default
// remittance corridor rates.
func NewStaticQuoteService() *StaticQuoteService {
	return &StaticQuoteService{
		rates: map[string]decimal.Decimal{
			"KES/XLM": decimal.NewFromFloat(1.0 / 120.0),
			"UGX/XLM": decimal.NewFromFloat(1.0 / 3450.0),
			"TZS/XLM": decimal.NewFromFloat(1.0 / 2250.0),
			"NGN/XLM": decimal.NewFromFloat(1.0 / 1400.0),
			"USD/XLM": decimal.NewFromFloat(8.33),
			"EUR/XLM": decimal.NewFromFloat(9.05),
			"XLM/KES": decimal.NewFromInt(120),
			"XLM/USD": decimal.NewFromFloat(0.12),
		},
	}
}

// NewStaticQuoteServiceWith creates a static source from an explicit
// table keyed "FROM/TO".
func NewStaticQuoteServiceWith(rates map[string]decimal.Decimal) *StaticQuoteService {
	return &StaticQuoteService{rates: rates}
}

// Rate returns the fixed rate for a pair.
func (s *StaticQuoteService) Rate(_ context.Context, from, to string, _ time.Time) (decimal.Decimal, error) {
	if rate, ok := s.rates[from+"/"+to]; ok {
		return rate, nil
	}

	return decimal.Zero, fmt.Errorf("%w for %s/%s", ErrNoPublishedRate, from, to)
}
