package domain

// CounterpartyKind discriminates the counterparty variants.
type CounterpartyKind string

const (
	// CounterpartyEmail identifies a recipient by email address.
	CounterpartyEmail CounterpartyKind = "email"
	// CounterpartyWallet identifies another wallet in this system.
	CounterpartyWallet CounterpartyKind = "wallet"
	// CounterpartyExternal identifies an external payout or funding
	// reference, e.g. a mobile-money phone number.
	CounterpartyExternal CounterpartyKind = "external"
)

// Counterparty describes the other side of a movement as a tagged
// variant rather than a bare string.
type Counterparty struct {
	Kind  CounterpartyKind
	Value string
}

// EmailCounterparty builds an email counterparty.
func EmailCounterparty(email string) Counterparty {
	return Counterparty{Kind: CounterpartyEmail, Value: email}
}

// WalletCounterparty builds a wallet counterparty.
func WalletCounterparty(walletID string) Counterparty {
	return Counterparty{Kind: CounterpartyWallet, Value: walletID}
}

// ExternalCounterparty builds an external-rail counterparty.
func ExternalCounterparty(ref string) Counterparty {
	return Counterparty{Kind: CounterpartyExternal, Value: ref}
}

// Validate checks the variant tag and value shape.
func (c Counterparty) Validate() error {
	if c.Value == "" {
		return ErrInvalidCounterparty
	}

	switch c.Kind {
	case CounterpartyEmail:
		return ValidateEmail(c.Value)
	case CounterpartyWallet, CounterpartyExternal:
		return nil
	default:
		return ErrInvalidCounterparty
	}
}
