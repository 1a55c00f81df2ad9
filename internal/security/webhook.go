package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignWebhookPayload computes hex(hmac_sha256(secret, payload)) over the
// raw request body.
func SignWebhookPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a provider callback signature with a
// constant-time comparison. A tampered body fails even when the
// signature string itself is well-formed hex.
func VerifyWebhookSignature(secret string, payload []byte, signature string) bool {
	expected := SignWebhookPayload(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
