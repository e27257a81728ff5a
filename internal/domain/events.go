package domain

import "time"

// Event types
const (
	EventTypeWalletCreated        = "wallet.created"
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypeCompensationApplied  = "transaction.compensated"
)

// Aggregate types
const (
	AggregateTypeWallet      = "wallet"
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionCompletedEvent payload
type TransactionCompletedEvent struct {
	TransactionID  string `json:"transaction_id"`
	WalletID       string `json:"wallet_id"`
	CorrelationID  string `json:"correlation_id"`
	Amount         string `json:"amount"`
	SourceCurrency string `json:"source_currency"`
	TargetCurrency string `json:"target_currency"`
	SettlementRef  string `json:"settlement_ref,omitempty"`
}

// TransactionFailedEvent payload
type TransactionFailedEvent struct {
	TransactionID string `json:"transaction_id"`
	WalletID      string `json:"wallet_id"`
	CorrelationID string `json:"correlation_id"`
	Reason        string `json:"reason"`
}

// WalletCreatedEvent payload
type WalletCreatedEvent struct {
	WalletID    string `json:"wallet_id"`
	PrincipalID string `json:"principal_id"`
	PublicRef   string `json:"public_ref"`
}
