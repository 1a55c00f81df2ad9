package query

import (
	"fmt"

	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
)

// GetOrderQuery represents the query to get an order with its payment
type GetOrderQuery struct {
	OrderID uint
}

// GetOrderHandler handles get order query
type GetOrderHandler struct {
	orders   orderdomain.OrderRepository
	payments domain.PaymentRepository
}

// NewGetOrderHandler creates a new get order handler
func NewGetOrderHandler(orders orderdomain.OrderRepository, payments domain.PaymentRepository) *GetOrderHandler {
	return &GetOrderHandler{orders: orders, payments: payments}
}

// OrderDetail is an order with its payment state.
type OrderDetail struct {
	Order   *orderdomain.Order `json:"order"`
	Payment *domain.Payment    `json:"payment,omitempty"`
}

// Handle executes the get order query
func (h *GetOrderHandler) Handle(q GetOrderQuery) (*OrderDetail, error) {
	if q.OrderID == 0 {
		return nil, fmt.Errorf("order_id is required")
	}

	order, err := h.orders.FindByID(q.OrderID)
	if err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}

	detail := &OrderDetail{Order: order}
	if payment, err := h.payments.FindByOrderID(order.ID); err == nil {
		detail.Payment = payment
	}
	return detail, nil
}
