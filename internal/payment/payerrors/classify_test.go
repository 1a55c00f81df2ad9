package payerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantKind  Kind
		retryable bool
	}{
		{
			name:      "declined maps to card declined",
			message:   "transaction declined by issuer",
			wantKind:  KindCardDeclined,
			retryable: false,
		},
		{
			name:      "timeout maps to timeout and is retryable",
			message:   "request timeout after 15s",
			wantKind:  KindTimeout,
			retryable: true,
		},
		{
			name:      "unrecognized message falls back to system error",
			message:   "something entirely unexpected",
			wantKind:  KindSystem,
			retryable: true,
		},
		{
			name:      "case insensitive matching",
			message:   "GATEWAY UNAVAILABLE",
			wantKind:  KindGateway,
			retryable: true,
		},
		{
			name:      "network errors",
			message:   "dial tcp: connection refused",
			wantKind:  KindNetwork,
			retryable: true,
		},
		{
			name:     "invalid card beats generic validation",
			message:  "invalid card number",
			wantKind: KindInvalidCard,
		},
		{
			name:     "generic invalid without card is validation",
			message:  "invalid phone number",
			wantKind: KindValidation,
		},
		{
			name:     "insufficient funds",
			message:  "insufficient balance in wallet",
			wantKind: KindInsufficientFunds,
		},
		{
			name:     "fraud keywords",
			message:  "suspicious activity detected",
			wantKind: KindFraudDetected,
		},
		{
			name:     "expired card",
			message:  "card expired 03/24",
			wantKind: KindExpiredCard,
		},
		{
			name:     "timeout beats gateway when both match",
			message:  "gateway timeout",
			wantKind: KindTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := Classify(errors.New(tt.message))
			assert.Equal(t, tt.wantKind, perr.Kind)
			assert.Equal(t, taxonomy[tt.wantKind].Retryable, perr.Retryable)
			assert.NotEmpty(t, perr.UserMessage)
		})
	}
}

func TestClassify_TypedErrorPassesThrough(t *testing.T) {
	original := New(KindComplianceViolation, "mobile money cap exceeded")
	classified := Classify(original)
	assert.Same(t, original, classified)
}

func TestKind_IsCritical(t *testing.T) {
	assert.True(t, KindFraudDetected.IsCritical())
	assert.True(t, KindSystem.IsCritical())
	assert.True(t, KindComplianceViolation.IsCritical())
	assert.False(t, KindCardDeclined.IsCritical())
	assert.False(t, KindTimeout.IsCritical())
}
