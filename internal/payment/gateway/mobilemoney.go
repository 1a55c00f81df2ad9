package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

// mobileMoneyVocabulary maps the wallet providers' statuses onto the
// platform set. Sadad and Mobicash share the same API family.
var mobileMoneyVocabulary = map[string]string{
	"initiated":  domain.StatusPending,
	"waiting":    domain.StatusPending,
	"in_review":  domain.StatusProcessing,
	"processing": domain.StatusProcessing,
	"success":    domain.StatusCompleted,
	"paid":       domain.StatusCompleted,
	"rejected":   domain.StatusFailed,
	"failed":     domain.StatusFailed,
	"expired":    domain.StatusCancelled,
	"cancelled":  domain.StatusCancelled,
	"reversed":   domain.StatusRefunded,
}

// MobileMoneyAdapter integrates the mobile wallet family. Initiation
// returns a QR code that the customer confirms out of band; status is
// polled afterwards.
type MobileMoneyAdapter struct {
	provider string
	client   *providerClient
}

func NewMobileMoneyAdapter(provider, baseURL, apiKey string) *MobileMoneyAdapter {
	return &MobileMoneyAdapter{
		provider: provider,
		client:   newProviderClient(provider, baseURL, apiKey, 15*time.Second),
	}
}

func (a *MobileMoneyAdapter) Name() string { return a.provider }

type mobileMoneyInitiatePayload struct {
	Reference string  `json:"reference"`
	Wallet    string  `json:"wallet"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type mobileMoneyInitiateResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	QRCode        string `json:"qr_code"`
	Message       string `json:"message"`
}

func (a *MobileMoneyAdapter) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	reference := fmt.Sprintf("TXN-%s", uuid.New().String()[:12])

	var result mobileMoneyInitiateResult
	err := a.client.post(ctx, "initiate", "/v1/charges", mobileMoneyInitiatePayload{
		Reference: reference,
		Wallet:    req.Account,
		Amount:    req.Amount,
		Currency:  req.Currency,
	}, &result)
	if err != nil {
		return nil, err
	}

	status := normalizeStatus(mobileMoneyVocabulary, result.Status)
	if status == domain.StatusFailed {
		return &InitiateResponse{Success: false, Status: status, Error: result.Message}, nil
	}

	return &InitiateResponse{
		Success:       true,
		TransactionID: reference,
		GatewayTxID:   result.TransactionID,
		Status:        status,
		QRCode:        result.QRCode,
	}, nil
}

type mobileMoneyStatusResult struct {
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	CompletedAt string  `json:"completed_at"`
	Reason      string  `json:"reason"`
}

func (a *MobileMoneyAdapter) CheckStatus(ctx context.Context, transactionID string) (*StatusResponse, error) {
	var result mobileMoneyStatusResult
	if err := a.client.get(ctx, "status", "/v1/charges/"+transactionID, &result); err != nil {
		return nil, err
	}

	resp := &StatusResponse{
		Status:        normalizeStatus(mobileMoneyVocabulary, result.Status),
		Amount:        result.Amount,
		Currency:      result.Currency,
		FailureReason: result.Reason,
	}
	if result.CompletedAt != "" {
		if t, err := time.Parse(time.RFC3339, result.CompletedAt); err == nil {
			resp.ProcessedAt = &t
		}
	}
	return resp, nil
}

type mobileMoneyRefundResult struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func (a *MobileMoneyAdapter) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	var result mobileMoneyRefundResult
	err := a.client.post(ctx, "refund", "/v1/refunds", map[string]any{
		"transaction_id": req.GatewayTxID,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"reason":         req.Reason,
	}, &result)
	if err != nil {
		return nil, err
	}

	status := normalizeStatus(mobileMoneyVocabulary, result.Status)
	return &RefundResponse{
		Success:  status != domain.StatusFailed,
		RefundID: result.RefundID,
		Status:   status,
		Error:    result.Message,
	}, nil
}
