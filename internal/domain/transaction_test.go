package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionStatus_Terminal(t *testing.T) {
	if TransactionPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !TransactionCompleted.Terminal() {
		t.Error("completed must be terminal")
	}
	if !TransactionFailed.Terminal() {
		t.Error("failed must be terminal")
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := func() Transaction {
		return Transaction{
			ID:            "t-1",
			WalletID:      "w-1",
			CorrelationID: "corr-1",
			Counterparty:  WalletCounterparty("w-2"),
			Amount:        decimal.NewFromInt(10),
			Rate:          decimal.NewFromInt(1),
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Transaction)
		errorType error
	}{
		{
			name:   "valid credit",
			mutate: func(*Transaction) {},
		},
		{
			name:   "valid debit",
			mutate: func(txn *Transaction) { txn.Amount = decimal.NewFromInt(-10) },
		},
		{
			name:      "zero amount",
			mutate:    func(txn *Transaction) { txn.Amount = decimal.Zero },
			errorType: ErrInvalidAmount,
		},
		{
			name:      "zero rate",
			mutate:    func(txn *Transaction) { txn.Rate = decimal.Zero },
			errorType: ErrInvalidRate,
		},
		{
			name:      "negative rate",
			mutate:    func(txn *Transaction) { txn.Rate = decimal.NewFromInt(-1) },
			errorType: ErrInvalidRate,
		},
		{
			name:      "empty counterparty",
			mutate:    func(txn *Transaction) { txn.Counterparty = Counterparty{} },
			errorType: ErrInvalidCounterparty,
		},
		{
			name:      "bad counterparty email",
			mutate:    func(txn *Transaction) { txn.Counterparty = EmailCounterparty("not-an-email") },
			errorType: ErrInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid()
			tt.mutate(&txn)

			err := txn.Validate()
			if tt.errorType == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestOutcome_Builders(t *testing.T) {
	completed := Completed("rail-ref")
	if completed.Status != TransactionCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if completed.SettlementRef == nil || *completed.SettlementRef != "rail-ref" {
		t.Error("expected settlement ref retained")
	}

	internal := Completed("")
	if internal.SettlementRef != nil {
		t.Error("internal movement carries no settlement ref")
	}

	failed := Failed("rail rejected")
	if failed.Status != TransactionFailed || failed.Reason != "rail rejected" {
		t.Errorf("unexpected failed outcome %+v", failed)
	}
}

func TestCounterparty_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cp          Counterparty
		expectError bool
	}{
		{name: "wallet", cp: WalletCounterparty("w-1")},
		{name: "external phone", cp: ExternalCounterparty("+254711000000")},
		{name: "email", cp: EmailCounterparty("alice@example.com")},
		{name: "bad email", cp: EmailCounterparty("nope"), expectError: true},
		{name: "empty value", cp: Counterparty{Kind: CounterpartyWallet}, expectError: true},
		{name: "unknown kind", cp: Counterparty{Kind: "carrier-pigeon", Value: "x"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cp.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
