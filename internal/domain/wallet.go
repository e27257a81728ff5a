package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a balance-holding account owned by exactly one principal.
// The balance is denominated in the settlement asset's units and never
// goes negative; it changes only through a finalized Transaction.
type Wallet struct {
	ID          string
	PrincipalID string
	PublicRef   string
	Balance     decimal.Decimal
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateDebit checks if the wallet can be debited by amount.
func (w *Wallet) ValidateDebit(amount decimal.Decimal) error {
	if w.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (w *Wallet) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return w.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (w *Wallet) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return w.Balance.Add(amount)
}
