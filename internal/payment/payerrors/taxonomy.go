// Package payerrors normalizes every payment failure into a closed
// taxonomy before it is logged, surfaced, or acted on. Raw provider
// text is kept for the audit trail only; users see the kind's safe
// message and recovery suggestions.
package payerrors

import "fmt"

// Kind is one of the fifteen platform error kinds.
type Kind string

const (
	KindValidation           Kind = "validation_error"
	KindGateway              Kind = "gateway_error"
	KindNetwork              Kind = "network_error"
	KindTimeout              Kind = "timeout_error"
	KindFraudDetected        Kind = "fraud_detected"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindCardDeclined         Kind = "card_declined"
	KindExpiredCard          Kind = "expired_card"
	KindInvalidCard          Kind = "invalid_card"
	KindDuplicateTransaction Kind = "duplicate_transaction"
	KindCurrencyMismatch     Kind = "currency_mismatch"
	KindAmountTooHigh        Kind = "amount_too_high"
	KindAmountTooLow         Kind = "amount_too_low"
	KindComplianceViolation  Kind = "compliance_violation"
	KindSystem               Kind = "system_error"
)

// descriptor carries the fixed policy for a kind.
type descriptor struct {
	UserMessage string
	Retryable   bool
	Suggestions []string
}

var taxonomy = map[Kind]descriptor{
	KindValidation: {
		UserMessage: "Some payment details are missing or invalid.",
		Retryable:   false,
		Suggestions: []string{"Review the payment details and correct any highlighted fields."},
	},
	KindGateway: {
		UserMessage: "The payment provider is temporarily unavailable.",
		Retryable:   true,
		Suggestions: []string{"Wait a few minutes and try again.", "Choose a different payment method."},
	},
	KindNetwork: {
		UserMessage: "A network problem interrupted the payment.",
		Retryable:   true,
		Suggestions: []string{"Check your connection and try again."},
	},
	KindTimeout: {
		UserMessage: "The payment provider took too long to respond.",
		Retryable:   true,
		Suggestions: []string{"Try again shortly.", "Confirm with your provider before paying twice."},
	},
	KindFraudDetected: {
		UserMessage: "This payment could not be processed.",
		Retryable:   false,
		Suggestions: []string{"Contact support if you believe this is a mistake."},
	},
	KindInsufficientFunds: {
		UserMessage: "The account has insufficient funds for this payment.",
		Retryable:   false,
		Suggestions: []string{"Top up the account or use a different payment method."},
	},
	KindCardDeclined: {
		UserMessage: "The card was declined by the issuing bank.",
		Retryable:   false,
		Suggestions: []string{"Contact your bank.", "Use a different card."},
	},
	KindExpiredCard: {
		UserMessage: "The card has expired.",
		Retryable:   false,
		Suggestions: []string{"Register a current card and try again."},
	},
	KindInvalidCard: {
		UserMessage: "The card details appear to be invalid.",
		Retryable:   false,
		Suggestions: []string{"Check the card number and try again."},
	},
	KindDuplicateTransaction: {
		UserMessage: "This payment appears to have been submitted already.",
		Retryable:   false,
		Suggestions: []string{"Check your order history before submitting again."},
	},
	KindCurrencyMismatch: {
		UserMessage: "The selected gateway does not support this currency.",
		Retryable:   false,
		Suggestions: []string{"Choose a gateway that supports the order currency."},
	},
	KindAmountTooHigh: {
		UserMessage: "The amount exceeds the limit for this payment method.",
		Retryable:   false,
		Suggestions: []string{"Split the order or use a bank transfer."},
	},
	KindAmountTooLow: {
		UserMessage: "The amount is below the minimum for this payment method.",
		Retryable:   false,
		Suggestions: []string{"Add more items or use a different payment method."},
	},
	KindComplianceViolation: {
		UserMessage: "This payment cannot be processed under current regulations.",
		Retryable:   false,
		Suggestions: []string{"Contact support for details."},
	},
	KindSystem: {
		UserMessage: "Something went wrong while processing the payment.",
		Retryable:   true,
		Suggestions: []string{"Try again.", "Contact support if the problem persists."},
	},
}

// PaymentError is the typed error every payment failure becomes.
type PaymentError struct {
	Kind        Kind     `json:"kind"`
	Message     string   `json:"-"` // raw cause, audit only
	UserMessage string   `json:"user_message"`
	Retryable   bool     `json:"retryable"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a typed error of the given kind wrapping a raw message.
func New(kind Kind, message string) *PaymentError {
	d, ok := taxonomy[kind]
	if !ok {
		kind = KindSystem
		d = taxonomy[KindSystem]
	}
	return &PaymentError{
		Kind:        kind,
		Message:     message,
		UserMessage: d.UserMessage,
		Retryable:   d.Retryable,
		Suggestions: d.Suggestions,
	}
}

// IsCritical reports whether the kind triggers an operator alert in
// addition to the audit record.
func (k Kind) IsCritical() bool {
	return k == KindFraudDetected || k == KindSystem || k == KindComplianceViolation
}
