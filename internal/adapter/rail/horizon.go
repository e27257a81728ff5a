package rail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/infrastructure/metrics"
)

// HorizonRail submits settlement instructions to a Horizon-compatible
// payment network over HTTP. Submission is synchronous: the rail
// either confirms with a transaction hash, rejects, or the outcome is
// unknown (timeouts, 5xx) and must be treated as ambiguous.
type HorizonRail struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHorizonRail creates a rail client against the given base URL.
func NewHorizonRail(baseURL string, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *HorizonRail {
	return &HorizonRail{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		logger:  logger.With().Str("component", "horizon_rail").Logger(),
	}
}

type submitRequest struct {
	Direction   string `json:"direction"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Asset       string `json:"asset"`
	ExternalRef string `json:"external_ref,omitempty"`
}

type submitResponse struct {
	Hash   string `json:"hash"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// Submit sends the instruction to the network and classifies the
// response. Transport failures and server errors return an ambiguous
// outcome: the payment may or may not have landed, so the caller must
// not reverse anything on this path.
func (r *HorizonRail) Submit(ctx context.Context, instruction domain.SettlementInstruction) (domain.SettlementOutcome, error) {
	body, err := json.Marshal(submitRequest{
		Direction:   string(instruction.Direction),
		Destination: instruction.WalletPublicRef,
		Amount:      instruction.Amount.String(),
		Asset:       instruction.Asset,
		ExternalRef: instruction.ExternalRef,
	})
	if err != nil {
		return domain.SettlementOutcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return domain.SettlementOutcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn().Err(err).Msg("rail submission outcome unknown")
		r.countOutcome("ambiguous")

		return domain.SettlementOutcome{Status: domain.SettlementAmbiguous, Reason: err.Error()}, nil
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		r.countOutcome("ambiguous")

		return domain.SettlementOutcome{Status: domain.SettlementAmbiguous, Reason: err.Error()}, nil
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var sr submitResponse
		if err := json.Unmarshal(payload, &sr); err != nil || sr.Hash == "" {
			r.countOutcome("ambiguous")

			return domain.SettlementOutcome{Status: domain.SettlementAmbiguous, Reason: "malformed confirmation"}, nil
		}

		r.countOutcome("confirmed")

		return domain.SettlementOutcome{Status: domain.SettlementConfirmed, Reference: sr.Hash}, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The network refused the payment; nothing moved.
		var sr submitResponse
		_ = json.Unmarshal(payload, &sr)

		detail := sr.Detail
		if detail == "" {
			detail = fmt.Sprintf("rail rejected with status %d", resp.StatusCode)
		}

		r.countOutcome("rejected")

		return domain.SettlementOutcome{Status: domain.SettlementRejected, Reason: detail}, nil

	default:
		r.logger.Warn().Int("status", resp.StatusCode).Msg("rail submission outcome unknown")
		r.countOutcome("ambiguous")

		return domain.SettlementOutcome{
			Status: domain.SettlementAmbiguous,
			Reason: fmt.Sprintf("rail returned status %d", resp.StatusCode),
		}, nil
	}
}

func (r *HorizonRail) countOutcome(outcome string) {
	if r.metrics != nil {
		r.metrics.RailOutcomes.WithLabelValues(outcome).Inc()
	}
}
