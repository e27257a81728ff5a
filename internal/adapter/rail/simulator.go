package rail

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/novapay/remit/internal/domain"
)

// Simulator is an in-process rail for local development and tests. It
// confirms every instruction with a synthetic reference, except for
// destinations that opt into failure by reference prefix.
type Simulator struct {
	mu        sync.Mutex
	submitted []domain.SettlementInstruction
}

// NewSimulator creates a simulator rail.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Submit records the instruction and fabricates an outcome. External
// refs starting with "reject" are refused and refs starting with
// "ambiguous" get no answer, so failure paths can be exercised
// end to end.
func (s *Simulator) Submit(_ context.Context, instruction domain.SettlementInstruction) (domain.SettlementOutcome, error) {
	s.mu.Lock()
	s.submitted = append(s.submitted, instruction)
	s.mu.Unlock()

	switch {
	case strings.HasPrefix(instruction.ExternalRef, "reject"):
		return domain.SettlementOutcome{Status: domain.SettlementRejected, Reason: "simulated rejection"}, nil
	case strings.HasPrefix(instruction.ExternalRef, "ambiguous"):
		return domain.SettlementOutcome{Status: domain.SettlementAmbiguous, Reason: "simulated timeout"}, nil
	default:
		return domain.SettlementOutcome{
			Status:    domain.SettlementConfirmed,
			Reference: "sim-" + uuid.NewString(),
		}, nil
	}
}

// Submitted returns a copy of everything submitted so far.
func (s *Simulator) Submitted() []domain.SettlementInstruction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SettlementInstruction, len(s.submitted))
	copy(out, s.submitted)

	return out
}
