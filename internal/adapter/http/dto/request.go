package dto

import (
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/usecase"
)

// CreateTransferRequest asks for an internal wallet-to-wallet
// transfer. Amount is denominated in source_currency; when omitted,
// the settlement asset is assumed.
type CreateTransferRequest struct {
	FromWalletID   string          `json:"from_wallet_id"`
	ToWalletID     string          `json:"to_wallet_id"`
	Amount         decimal.Decimal `json:"amount"`
	SourceCurrency string          `json:"source_currency,omitempty"`
	RecipientEmail string          `json:"recipient_email,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		FromWalletID:   r.FromWalletID,
		ToWalletID:     r.ToWalletID,
		Amount:         r.Amount,
		SourceCurrency: r.SourceCurrency,
		RecipientEmail: r.RecipientEmail,
	}
}

// DepositRequest asks to fund a wallet from an external source.
type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	PhoneNumber string          `json:"phone_number"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput(walletID string) usecase.DepositInput {
	return usecase.DepositInput{
		WalletID:    walletID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		PhoneNumber: r.PhoneNumber,
	}
}

// PayoutRequest asks to pay out a wallet to an external rail. Amount
// is in settlement-asset units.
type PayoutRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	TargetCurrency string          `json:"target_currency"`
	PhoneNumber    string          `json:"phone_number"`
}

// ToUseCaseInput converts to use case input.
func (r *PayoutRequest) ToUseCaseInput(walletID string) usecase.PayoutInput {
	return usecase.PayoutInput{
		WalletID:       walletID,
		Amount:         r.Amount,
		TargetCurrency: r.TargetCurrency,
		PhoneNumber:    r.PhoneNumber,
	}
}
