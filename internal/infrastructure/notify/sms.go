// Package notify delivers completion notices to counterparties.
// Delivery itself is an external collaborator; the implementations
// here format the message and hand it off.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SMSNotifier logs the SMS that a delivery provider would send. Wire a
// real provider (Twilio, Africa's Talking) behind the same interface
// in production.
type SMSNotifier struct {
	logger zerolog.Logger
}

// NewSMSNotifier creates an SMSNotifier.
func NewSMSNotifier(logger zerolog.Logger) *SMSNotifier {
	return &SMSNotifier{logger: logger}
}

// Notify sends a received-funds notice to the recipient.
func (n *SMSNotifier) Notify(ctx context.Context, recipient string, amount decimal.Decimal, currency string) error {
	message := fmt.Sprintf("You have received %s %s. Transaction completed.", amount.String(), currency)

	n.logger.Info().
		Str("recipient", recipient).
		Str("message", message).
		Msg("sms notification")

	return nil
}
