package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		name        string
		currency    string
		expectError bool
	}{
		{name: "settlement asset", currency: "XLM"},
		{name: "mobile currency", currency: "KES"},
		{name: "lowercase normalized", currency: "usd"},
		{name: "padded", currency: " EUR "},
		{name: "unsupported", currency: "GBP", expectError: true},
		{name: "empty", currency: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCurrency(tt.currency)
			if tt.expectError && !errors.Is(err, ErrInvalidCurrency) {
				t.Errorf("expected ErrInvalidCurrency, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name      string
		amount    decimal.Decimal
		errorType error
	}{
		{name: "valid amount", amount: decimal.NewFromInt(100)},
		{name: "minimum unit", amount: decimal.RequireFromString(MinTransferAmount)},
		{name: "maximum", amount: decimal.RequireFromString(MaxTransferAmount)},
		{name: "zero", amount: decimal.Zero, errorType: ErrInvalidAmount},
		{name: "negative", amount: decimal.NewFromInt(-5), errorType: ErrInvalidAmount},
		{name: "below minimum unit", amount: decimal.RequireFromString("0.00000001"), errorType: ErrAmountTooSmall},
		{name: "above maximum", amount: decimal.RequireFromString("1000000001"), errorType: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
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

func TestValidateEmail(t *testing.T) {
	valid := []string{"alice@example.com", "a.b+c@sub.domain.co", "UPPER@EXAMPLE.COM"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", email, err)
		}
	}

	invalid := []string{"", "no-at-sign", "missing@tld", "@example.com"}
	for _, email := range invalid {
		if err := ValidateEmail(email); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("ValidateEmail(%q) = %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"+254711000000", "254711000000", "+14155550100"}
	for _, phone := range valid {
		if err := ValidatePhoneNumber(phone); err != nil {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want nil", phone, err)
		}
	}

	invalid := []string{"", "12345", "+254-711-000-000", "phone"}
	for _, phone := range invalid {
		if err := ValidatePhoneNumber(phone); !errors.Is(err, ErrInvalidPhoneNumber) {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want ErrInvalidPhoneNumber", phone, err)
		}
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 50, wantOffset: 0},
		{name: "passthrough", limit: 20, offset: 40, wantLimit: 20, wantOffset: 40},
		{name: "clamped limit", limit: 5000, offset: 0, wantLimit: 1000, wantOffset: 0},
		{name: "negative offset", limit: 10, offset: -3, wantLimit: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ValidatePagination(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got %d/%d, want %d/%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
