package payerrors

import (
	"errors"
	"strings"
)

// classificationRule matches a raw error message to a kind. Rules are
// evaluated in order: specific substrings first, the generic system
// fallback last. Keeping the policy as data makes the ordering
// explicit and testable independent of exact provider wording.
type classificationRule struct {
	kind  Kind
	match func(msg string) bool
}

func containsAny(substrings ...string) func(string) bool {
	return func(msg string) bool {
		for _, s := range substrings {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

func containsAll(substrings ...string) func(string) bool {
	return func(msg string) bool {
		for _, s := range substrings {
			if !strings.Contains(msg, s) {
				return false
			}
		}
		return true
	}
}

var classificationRules = []classificationRule{
	{KindTimeout, containsAny("timeout", "timed out", "deadline exceeded")},
	{KindNetwork, containsAny("network", "connection refused", "no such host")},
	{KindGateway, containsAny("gateway", "api", "unavailable")},
	{KindCardDeclined, containsAny("declined")},
	{KindExpiredCard, containsAny("expired")},
	{KindInvalidCard, containsAll("invalid", "card")},
	{KindInsufficientFunds, containsAny("insufficient", "funds")},
	{KindFraudDetected, containsAny("fraud", "suspicious")},
	{KindDuplicateTransaction, containsAny("duplicate")},
	{KindValidation, containsAny("validation", "invalid", "required")},
}

// Classify normalizes an arbitrary error into a PaymentError. A
// *PaymentError passes through untouched; anything else is matched
// case-insensitively against the ranked rules, with system_error
// (retryable) as the final fallback.
func Classify(err error) *PaymentError {
	var typed *PaymentError
	if errors.As(err, &typed) {
		return typed
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range classificationRules {
		if rule.match(msg) {
			return New(rule.kind, err.Error())
		}
	}
	return New(KindSystem, err.Error())
}
