package query

import (
	"github.com/medsouq/marketplace/internal/payment/domain"
)

// ListPaymentsQuery represents the query to list all payments (admin)
type ListPaymentsQuery struct {
	Limit  int
	Offset int
}

// ListPaymentsHandler handles list payments query
type ListPaymentsHandler struct {
	payments domain.PaymentRepository
}

// NewListPaymentsHandler creates a new list payments handler
func NewListPaymentsHandler(payments domain.PaymentRepository) *ListPaymentsHandler {
	return &ListPaymentsHandler{payments: payments}
}

// Handle executes the list payments query
func (h *ListPaymentsHandler) Handle(q ListPaymentsQuery) ([]domain.Payment, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	return h.payments.FindAll(q.Limit, q.Offset)
}
