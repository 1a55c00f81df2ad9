package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// Cipher encrypts sensitive payment fields (account numbers, gateway
// credentials) with AES-256-GCM. The serialized form is
// "iv:authTag:ciphertext", all hex encoded.
type Cipher struct {
	key []byte
}

// NewCipher derives a 256-bit key from the configured secret and salt
// using PBKDF2-SHA256.
func NewCipher(secret, salt string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret must not be empty")
	}
	key := pbkdf2.Key([]byte(secret), []byte(salt), 100_000, 32, sha256.New)
	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext and serializes it as iv:authTag:ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build gcm: %w", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	// GCM appends the auth tag to the ciphertext; split it back out so
	// the serialized layout stays iv:authTag:ciphertext.
	tagStart := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return strings.Join([]string{
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt reverses Encrypt. Tampered input fails the GCM tag check.
func (c *Cipher) Decrypt(serialized string) (string, error) {
	parts := strings.Split(serialized, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid encrypted payload format")
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid iv encoding: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid auth tag encoding: %w", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build gcm: %w", err)
	}
	if len(iv) != gcm.NonceSize() {
		return "", fmt.Errorf("invalid iv length")
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return string(plaintext), nil
}

type tokenEnvelope struct {
	Data      string `json:"data"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

// Tokenize wraps data with a timestamp and nonce before encrypting, so
// the same input never yields the same token and a token captured in
// one context cannot be replayed in another.
func (c *Cipher) Tokenize(data string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	envelope, err := json.Marshal(tokenEnvelope{
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		Nonce:     hex.EncodeToString(nonce),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token envelope: %w", err)
	}
	return c.Encrypt(string(envelope))
}

// Detokenize unwraps a token produced by Tokenize.
func (c *Cipher) Detokenize(token string) (string, error) {
	plaintext, err := c.Decrypt(token)
	if err != nil {
		return "", err
	}
	var envelope tokenEnvelope
	if err := json.Unmarshal([]byte(plaintext), &envelope); err != nil {
		return "", fmt.Errorf("failed to unmarshal token envelope: %w", err)
	}
	return envelope.Data, nil
}

// MaskAccountNumber keeps the last four digits visible.
func MaskAccountNumber(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
