package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

// cardVocabulary maps the card processor's statuses onto the platform
// set.
var cardVocabulary = map[string]string{
	"created":    domain.StatusPending,
	"authorized": domain.StatusProcessing,
	"captured":   domain.StatusCompleted,
	"settled":    domain.StatusCompleted,
	"declined":   domain.StatusFailed,
	"failed":     domain.StatusFailed,
	"voided":     domain.StatusCancelled,
	"refunded":   domain.StatusRefunded,
}

// CardAdapter integrates the hosted-page card processor. Initiation
// redirects the buyer to the processor's payment page; completion is
// signalled by webhook rather than polling.
type CardAdapter struct {
	provider string
	client   *providerClient
}

func NewCardAdapter(provider, baseURL, apiKey string) *CardAdapter {
	return &CardAdapter{
		provider: provider,
		client:   newProviderClient(provider, baseURL, apiKey, 15*time.Second),
	}
}

func (a *CardAdapter) Name() string { return a.provider }

type cardSessionResult struct {
	SessionID  string `json:"session_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (a *CardAdapter) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	reference := fmt.Sprintf("TXN-%s", uuid.New().String()[:12])

	var result cardSessionResult
	err := a.client.post(ctx, "initiate", "/v1/sessions", map[string]any{
		"reference":  reference,
		"amount":     req.Amount,
		"currency":   req.Currency,
		"return_url": req.ReturnURL,
	}, &result)
	if err != nil {
		return nil, err
	}

	status := normalizeStatus(cardVocabulary, result.Status)
	if status == domain.StatusFailed {
		return &InitiateResponse{Success: false, Status: status, Error: result.Message}, nil
	}

	return &InitiateResponse{
		Success:       true,
		TransactionID: reference,
		GatewayTxID:   result.SessionID,
		Status:        status,
		RedirectURL:   result.PaymentURL,
	}, nil
}

type cardStatusResult struct {
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	SettledAt string  `json:"settled_at"`
	Reason    string  `json:"decline_reason"`
}

func (a *CardAdapter) CheckStatus(ctx context.Context, transactionID string) (*StatusResponse, error) {
	var result cardStatusResult
	if err := a.client.get(ctx, "status", "/v1/sessions/"+transactionID, &result); err != nil {
		return nil, err
	}

	resp := &StatusResponse{
		Status:        normalizeStatus(cardVocabulary, result.Status),
		Amount:        result.Amount,
		Currency:      result.Currency,
		FailureReason: result.Reason,
	}
	if result.SettledAt != "" {
		if t, err := time.Parse(time.RFC3339, result.SettledAt); err == nil {
			resp.ProcessedAt = &t
		}
	}
	return resp, nil
}

type cardRefundResult struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func (a *CardAdapter) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	var result cardRefundResult
	err := a.client.post(ctx, "refund", "/v1/refunds", map[string]any{
		"session_id": req.GatewayTxID,
		"amount":     req.Amount,
		"currency":   req.Currency,
		"reason":     req.Reason,
	}, &result)
	if err != nil {
		return nil, err
	}

	status := normalizeStatus(cardVocabulary, result.Status)
	return &RefundResponse{
		Success:  status != domain.StatusFailed,
		RefundID: result.RefundID,
		Status:   status,
		Error:    result.Message,
	}, nil
}
