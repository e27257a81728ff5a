package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction.
// pending is the only non-terminal state; completed and failed are
// absorbing.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Terminal reports whether the status is absorbing.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

// Transaction is an immutable-once-terminal record of a single signed
// balance movement. Amount is in settlement-asset units: positive is a
// credit to the owning wallet, negative a debit.
type Transaction struct {
	ID             string
	WalletID       string
	CorrelationID  string
	Counterparty   Counterparty
	Amount         decimal.Decimal
	SourceCurrency string
	TargetCurrency string
	Rate           decimal.Decimal
	SettlementRef  *string
	Status         TransactionStatus
	FailureReason  *string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Outcome is the terminal fate applied to a pending transaction.
type Outcome struct {
	Status        TransactionStatus
	SettlementRef *string
	Reason        string
}

// Completed builds the success outcome. ref may be empty for movements
// that never crossed a settlement rail.
func Completed(ref string) Outcome {
	o := Outcome{Status: TransactionCompleted}
	if ref != "" {
		o.SettlementRef = &ref
	}
	return o
}

// Failed builds the failure outcome with the reason retained for
// operator inspection.
func Failed(reason string) Outcome {
	return Outcome{Status: TransactionFailed, Reason: reason}
}

// Validate validates the transaction at creation time.
func (t *Transaction) Validate() error {
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}

	if t.Rate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidRate
	}

	return t.Counterparty.Validate()
}
