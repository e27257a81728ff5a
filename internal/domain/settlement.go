package domain

import "github.com/shopspring/decimal"

// SettlementDirection says which way value crosses the system boundary.
type SettlementDirection string

const (
	SettlementDeposit SettlementDirection = "deposit"
	SettlementPayout  SettlementDirection = "payout"
)

// SettlementInstruction is what the engine hands to the external rail.
type SettlementInstruction struct {
	Direction       SettlementDirection
	WalletPublicRef string
	Amount          decimal.Decimal
	Asset           string
	ExternalRef     string
}

// SettlementStatus is the rail's answer for an instruction.
type SettlementStatus string

const (
	// SettlementConfirmed means the rail settled the movement.
	SettlementConfirmed SettlementStatus = "confirmed"
	// SettlementRejected means the rail refused; no value moved.
	SettlementRejected SettlementStatus = "rejected"
	// SettlementAmbiguous means neither success nor failure was
	// observed. The transaction stays pending for reconciliation;
	// the engine never finalizes on an ambiguous response.
	SettlementAmbiguous SettlementStatus = "ambiguous"
)

// SettlementOutcome is the typed result of a rail submission.
type SettlementOutcome struct {
	Status    SettlementStatus
	Reference string
	Reason    string
}
