package domain

import "errors"

var (
	// Wallet errors
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletExists      = errors.New("principal already owns a wallet")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidTransition   = errors.New("transaction is not pending")
	ErrSameWallet          = errors.New("cannot transfer to same wallet")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidRate         = errors.New("rate must be positive")
	ErrInvalidCounterparty = errors.New("invalid counterparty")

	// Rate errors
	ErrUnsupportedCurrencyPair = errors.New("unsupported currency pair")
	ErrStaleRates              = errors.New("published rates are stale")

	// Rail errors
	ErrRailAmbiguous = errors.New("settlement outcome ambiguous, awaiting reconciliation")
)

// IsUserFacing reports whether err may be returned to callers verbatim.
// Everything else surfaces as a generic failure while full detail stays
// in the transaction's failure reason.
func IsUserFacing(err error) bool {
	switch {
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrSameWallet),
		errors.Is(err, ErrInvalidCounterparty),
		errors.Is(err, ErrInvalidCurrency),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidPhoneNumber),
		errors.Is(err, ErrAmountTooLarge),
		errors.Is(err, ErrAmountTooSmall),
		errors.Is(err, ErrUnsupportedCurrencyPair):
		return true
	}
	return false
}
