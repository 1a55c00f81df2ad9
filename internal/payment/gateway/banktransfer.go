package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

// BankTransferAdapter handles the bank transfer family. There is no
// provider API to poll: initiation hands the buyer a bank reference and
// manual instructions, and the locally persisted payment record is the
// status authority. An external reconciliation actor (the admin
// reconciliation endpoint or a bank webhook) marks it complete.
type BankTransferAdapter struct {
	provider        string
	instructionsURL string
	payments        domain.PaymentRepository
}

func NewBankTransferAdapter(provider, instructionsURL string, payments domain.PaymentRepository) *BankTransferAdapter {
	return &BankTransferAdapter{
		provider:        provider,
		instructionsURL: instructionsURL,
		payments:        payments,
	}
}

func (a *BankTransferAdapter) Name() string { return a.provider }

func (a *BankTransferAdapter) Initiate(_ context.Context, req InitiateRequest) (*InitiateResponse, error) {
	reference := fmt.Sprintf("BT-%s", uuid.New().String()[:8])

	return &InitiateResponse{
		Success:       true,
		TransactionID: reference,
		GatewayTxID:   reference,
		Status:        domain.StatusPending,
		Reference:     reference,
		RedirectURL:   fmt.Sprintf("%s?ref=%s&order=%s", a.instructionsURL, reference, req.OrderNumber),
	}, nil
}

// CheckStatus reads the local payment record found by the bank
// reference instead of calling out to a provider.
func (a *BankTransferAdapter) CheckStatus(_ context.Context, transactionID string) (*StatusResponse, error) {
	payment, err := a.payments.FindByGatewayTxID(transactionID)
	if err != nil {
		return nil, fmt.Errorf("bank transfer %s not found locally: %w", transactionID, err)
	}
	return &StatusResponse{
		Status:      payment.Status,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		ProcessedAt: payment.ProcessedAt,
	}, nil
}

// Refund records the intent; the actual reversal is a manual bank
// operation confirmed through reconciliation.
func (a *BankTransferAdapter) Refund(_ context.Context, req RefundRequest) (*RefundResponse, error) {
	return &RefundResponse{
		Success:  true,
		RefundID: fmt.Sprintf("BTR-%s", uuid.New().String()[:8]),
		Status:   domain.RefundStatusPending,
	}, nil
}
