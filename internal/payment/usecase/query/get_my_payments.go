package query

import (
	"fmt"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

// GetMyPaymentsQuery represents the query to get a user's payments
type GetMyPaymentsQuery struct {
	UserID uint
	Limit  int
	Offset int
}

// GetMyPaymentsHandler handles get my payments query
type GetMyPaymentsHandler struct {
	payments domain.PaymentRepository
}

// NewGetMyPaymentsHandler creates a new get my payments handler
func NewGetMyPaymentsHandler(payments domain.PaymentRepository) *GetMyPaymentsHandler {
	return &GetMyPaymentsHandler{payments: payments}
}

// Handle executes the get my payments query
func (h *GetMyPaymentsHandler) Handle(q GetMyPaymentsQuery) ([]domain.Payment, error) {
	if q.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	return h.payments.FindByUserID(q.UserID, q.Limit, q.Offset)
}
