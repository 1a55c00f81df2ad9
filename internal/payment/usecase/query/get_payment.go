package query

import (
	"fmt"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

// GetPaymentQuery represents the query to get a payment by ID
type GetPaymentQuery struct {
	PaymentID uint
}

// GetPaymentHandler handles get payment query
type GetPaymentHandler struct {
	payments domain.PaymentRepository
	txs      domain.TransactionRepository
}

// NewGetPaymentHandler creates a new get payment handler
func NewGetPaymentHandler(payments domain.PaymentRepository, txs domain.TransactionRepository) *GetPaymentHandler {
	return &GetPaymentHandler{payments: payments, txs: txs}
}

// PaymentDetail is a payment with its transaction ledger.
type PaymentDetail struct {
	Payment      *domain.Payment             `json:"payment"`
	Transactions []domain.PaymentTransaction `json:"transactions"`
}

// Handle executes the get payment query
func (h *GetPaymentHandler) Handle(q GetPaymentQuery) (*PaymentDetail, error) {
	if q.PaymentID == 0 {
		return nil, fmt.Errorf("payment_id is required")
	}

	payment, err := h.payments.FindByID(q.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("payment not found: %w", err)
	}

	txs, err := h.txs.FindByPaymentID(payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return &PaymentDetail{Payment: payment, Transactions: txs}, nil
}
