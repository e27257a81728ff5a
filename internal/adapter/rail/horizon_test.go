package rail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
)

func newTestRail(t *testing.T, handler http.HandlerFunc) *HorizonRail {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHorizonRail(srv.URL, time.Second, nil, zerolog.Nop())
}

func testInstruction() domain.SettlementInstruction {
	return domain.SettlementInstruction{
		Direction:       domain.SettlementPayout,
		WalletPublicRef: "GABC123",
		Amount:          decimal.RequireFromString("10.5"),
		Asset:           "XLM",
		ExternalRef:     "+254700000001",
	}
}

func TestHorizonRailConfirms(t *testing.T) {
	r := newTestRail(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hash":"abc123","status":"completed"}`))
	})

	outcome, err := r.Submit(context.Background(), testInstruction())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome.Status != domain.SettlementConfirmed || outcome.Reference != "abc123" {
		t.Fatalf("expected confirmed abc123, got %+v", outcome)
	}
}

func TestHorizonRailRejectsOn4xx(t *testing.T) {
	r := newTestRail(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"op_underfunded"}`))
	})

	outcome, err := r.Submit(context.Background(), testInstruction())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome.Status != domain.SettlementRejected || outcome.Reason != "op_underfunded" {
		t.Fatalf("expected rejection with reason, got %+v", outcome)
	}
}

func TestHorizonRailAmbiguousOn5xx(t *testing.T) {
	r := newTestRail(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	outcome, err := r.Submit(context.Background(), testInstruction())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome.Status != domain.SettlementAmbiguous {
		t.Fatalf("expected ambiguous outcome, got %+v", outcome)
	}
}

func TestHorizonRailAmbiguousOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	r := NewHorizonRail(srv.URL, time.Second, nil, zerolog.Nop())

	outcome, err := r.Submit(context.Background(), testInstruction())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if outcome.Status != domain.SettlementAmbiguous {
		t.Fatalf("expected ambiguous outcome, got %+v", outcome)
	}
}

func TestSimulatorOutcomes(t *testing.T) {
	s := NewSimulator()
	ctx := context.Background()

	in := testInstruction()

	outcome, _ := s.Submit(ctx, in)
	if outcome.Status != domain.SettlementConfirmed || outcome.Reference == "" {
		t.Fatalf("expected confirmation, got %+v", outcome)
	}

	in.ExternalRef = "reject-me"
	if outcome, _ = s.Submit(ctx, in); outcome.Status != domain.SettlementRejected {
		t.Fatalf("expected rejection, got %+v", outcome)
	}

	in.ExternalRef = "ambiguous-me"
	if outcome, _ = s.Submit(ctx, in); outcome.Status != domain.SettlementAmbiguous {
		t.Fatalf("expected ambiguous, got %+v", outcome)
	}

	if got := len(s.Submitted()); got != 3 {
		t.Fatalf("expected 3 submissions recorded, got %d", got)
	}
}
