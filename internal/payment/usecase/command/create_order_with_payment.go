package command

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/currency"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
)

// CreateOrderWithPaymentCommand creates an order together with its
// pending payment.
type CreateOrderWithPaymentCommand struct {
	BuyerID         uint
	SellerID        uint
	Currency        string
	PaymentMethodID uint
	Items           []OrderItemInput
}

// OrderItemInput is one line of the order.
type OrderItemInput struct {
	ListingID uint
	Quantity  int
	UnitPrice float64
}

// CreateOrderWithPaymentHandler handles order creation. Order, items,
// and the pending payment are inserted in one database transaction.
type CreateOrderWithPaymentHandler struct {
	db       *gorm.DB
	orders   orderdomain.OrderRepository
	payments domain.PaymentRepository
	methods  domain.PaymentMethodRepository
}

// NewCreateOrderWithPaymentHandler creates a new handler
func NewCreateOrderWithPaymentHandler(
	db *gorm.DB,
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	methods domain.PaymentMethodRepository,
) *CreateOrderWithPaymentHandler {
	return &CreateOrderWithPaymentHandler{db: db, orders: orders, payments: payments, methods: methods}
}

// Handle executes the command
func (h *CreateOrderWithPaymentHandler) Handle(cmd CreateOrderWithPaymentCommand) (*orderdomain.Order, *domain.Payment, error) {
	if cmd.BuyerID == 0 || cmd.SellerID == 0 {
		return nil, nil, fmt.Errorf("buyer_id and seller_id are required")
	}
	if len(cmd.Items) == 0 {
		return nil, nil, fmt.Errorf("order needs at least one item")
	}
	if cmd.Currency == "" {
		cmd.Currency = currency.Home
	}
	if !currency.IsSupported(cmd.Currency) {
		return nil, nil, fmt.Errorf("unsupported currency: %s", cmd.Currency)
	}

	method, err := h.methods.FindByID(cmd.PaymentMethodID)
	if err != nil {
		return nil, nil, fmt.Errorf("payment method not found: %w", err)
	}
	if method.UserID != cmd.BuyerID {
		return nil, nil, fmt.Errorf("payment method does not belong to buyer")
	}

	var total float64
	items := make([]orderdomain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		if item.Quantity < 1 {
			return nil, nil, fmt.Errorf("item quantity must be at least 1")
		}
		if item.UnitPrice <= 0 {
			return nil, nil, fmt.Errorf("item unit price must be positive")
		}
		lineTotal := float64(item.Quantity) * item.UnitPrice
		items[i] = orderdomain.OrderItem{
			ListingID: item.ListingID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     lineTotal,
		}
		total += lineTotal
	}

	order := &orderdomain.Order{
		OrderNumber: fmt.Sprintf("ORD-%s", uuid.New().String()[:8]),
		BuyerID:     cmd.BuyerID,
		SellerID:    cmd.SellerID,
		TotalAmount: total,
		Currency:    cmd.Currency,
		Status:      orderdomain.StatusPending,
		Items:       items,
	}

	var payment *domain.Payment
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.orders.Create(tx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		payment = &domain.Payment{
			OrderID:         order.ID,
			UserID:          cmd.BuyerID,
			PaymentMethodID: method.ID,
			GatewayID:       method.GatewayID,
			Amount:          total,
			Currency:        cmd.Currency,
			Status:          domain.StatusPending,
		}
		if err := h.payments.Create(tx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return order, payment, nil
}
