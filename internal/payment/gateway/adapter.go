// Package gateway abstracts the Libyan payment providers behind a
// single adapter contract. Each provider family (mobile money, bank
// transfer, card) gets one adapter; the manager owns their lifetimes
// and dispatches by gateway configuration.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

// InitiateRequest starts a charge with a provider.
type InitiateRequest struct {
	PaymentID   uint
	OrderNumber string
	Amount      float64
	Currency    string
	// Account is the detokenized customer account reference
	// (wallet number, IBAN, card token) for the provider.
	Account   string
	ReturnURL string
}

// InitiateResponse is the normalized initiation result. Mobile money
// sets QRCode, bank transfer sets Reference plus an instructions URL,
// card sets a hosted-page RedirectURL.
type InitiateResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	GatewayTxID   string `json:"gateway_tx_id,omitempty"`
	Status        string `json:"status,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Error         string `json:"error,omitempty"`
}

// StatusResponse is the normalized provider status for a transaction.
type StatusResponse struct {
	Status        string     `json:"status"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

// RefundRequest asks a provider to return funds.
type RefundRequest struct {
	PaymentID   uint
	GatewayTxID string
	Amount      float64
	Currency    string
	Reason      string
}

// RefundResponse is the normalized refund result.
type RefundResponse struct {
	Success  bool   `json:"success"`
	RefundID string `json:"refund_id,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Adapter is the contract every payment provider integration
// implements. Adapters are stateless request executors; persistence
// belongs to the orchestrator.
type Adapter interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	CheckStatus(ctx context.Context, transactionID string) (*StatusResponse, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
}

// normalizeStatus maps a provider-native status onto the platform
// vocabulary. Unmapped statuses default to pending: a charge is never
// silently treated as completed.
func normalizeStatus(vocabulary map[string]string, raw string) string {
	if status, ok := vocabulary[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return domain.StatusPending
}
