package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"transaction_id":"TXN-1","status":"completed"}`)

	signature := SignWebhookPayload(secret, payload)
	assert.True(t, VerifyWebhookSignature(secret, payload, signature))

	// Tampered body fails even though the signature is well-formed hex.
	tampered := []byte(`{"transaction_id":"TXN-1","status":"refunded"}`)
	assert.False(t, VerifyWebhookSignature(secret, tampered, signature))

	// Wrong secret fails.
	assert.False(t, VerifyWebhookSignature("whsec_other", payload, signature))

	// Garbage signature fails.
	assert.False(t, VerifyWebhookSignature(secret, payload, "deadbeef"))
}
