package domain

import "time"

// SagaState tracks how far a rail-crossing movement has progressed, so
// a crash mid-sequence can be resumed or compensated deterministically
// by re-reading the persisted state.
type SagaState string

const (
	SagaPendingCreated SagaState = "pending_created"
	SagaDebitApplied   SagaState = "debit_applied"
	SagaSettled        SagaState = "settled"
	SagaDebitReversed  SagaState = "debit_reversed"
	SagaFinalized      SagaState = "finalized"
)

// TransferSaga is the persisted progress record of one movement,
// keyed by its correlation id.
type TransferSaga struct {
	CorrelationID string
	WalletID      string
	Direction     SettlementDirection
	State         SagaState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// sagaTransitions lists the allowed forward edges.
var sagaTransitions = map[SagaState][]SagaState{
	SagaPendingCreated: {SagaDebitApplied, SagaFinalized},
	SagaDebitApplied:   {SagaSettled, SagaDebitReversed},
	SagaSettled:        {SagaFinalized},
	SagaDebitReversed:  {SagaFinalized},
}

// CanTransition reports whether moving to next is a legal step.
func (s *TransferSaga) CanTransition(next SagaState) bool {
	for _, allowed := range sagaTransitions[s.State] {
		if allowed == next {
			return true
		}
	}
	return false
}
