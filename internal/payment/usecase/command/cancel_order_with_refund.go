package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medsouq/marketplace/internal/escrow"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/payment/gateway"
	"github.com/medsouq/marketplace/kafka"
	"github.com/medsouq/marketplace/pkg/logger"
)

// CancelOrderWithRefundCommand cancels an order and, when the payment
// already settled, opens a full refund.
type CancelOrderWithRefundCommand struct {
	OrderID     uint
	RequestedBy uint
	Reason      string
}

// CancelPublisher emits the cancellation event.
type CancelPublisher interface {
	PublishOrderCancelled(ctx context.Context, event kafka.OrderCancelledEvent) error
}

// CancelOrderWithRefundHandler handles order cancellation.
type CancelOrderWithRefundHandler struct {
	orders    orderdomain.OrderRepository
	payments  domain.PaymentRepository
	refunds   domain.RefundRepository
	txs       domain.TransactionRepository
	manager   *gateway.Manager
	escrow    *escrow.Manager
	publisher CancelPublisher
}

// NewCancelOrderWithRefundHandler creates a new handler
func NewCancelOrderWithRefundHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	refunds domain.RefundRepository,
	txs domain.TransactionRepository,
	manager *gateway.Manager,
	escrowManager *escrow.Manager,
	publisher CancelPublisher,
) *CancelOrderWithRefundHandler {
	return &CancelOrderWithRefundHandler{
		orders:    orders,
		payments:  payments,
		refunds:   refunds,
		txs:       txs,
		manager:   manager,
		escrow:    escrowManager,
		publisher: publisher,
	}
}

// Handle executes the command
func (h *CancelOrderWithRefundHandler) Handle(ctx context.Context, cmd CancelOrderWithRefundCommand) (*orderdomain.Order, *domain.Refund, error) {
	order, err := h.orders.FindByID(cmd.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("order %d not found: %w", cmd.OrderID, err)
	}
	if err := order.CanTransitionTo(orderdomain.StatusCancelled); err != nil {
		return nil, nil, err
	}
	if cmd.Reason == "" {
		cmd.Reason = "order_cancelled"
	}

	payment, err := h.payments.FindByOrderID(order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("no payment for order %d: %w", order.ID, err)
	}

	var refund *domain.Refund
	switch payment.Status {
	case domain.StatusCompleted:
		refund, err = h.refundCompleted(ctx, order, payment, cmd)
		if err != nil {
			return nil, nil, err
		}
	case domain.StatusRefunded:
		// Already refunded; just finish the cancellation.
	default:
		if _, err := h.payments.UpdateStatusIf(payment.ID, payment.Status, domain.StatusCancelled); err != nil {
			return nil, nil, fmt.Errorf("failed to cancel payment: %w", err)
		}
	}

	changed, err := h.orders.UpdateStatusIf(order.ID, order.Status, orderdomain.StatusCancelled)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !changed {
		return nil, nil, fmt.Errorf("order %d changed state during cancellation", order.ID)
	}
	order.Status = orderdomain.StatusCancelled

	if err := h.publisher.PublishOrderCancelled(ctx, kafka.OrderCancelledEvent{
		OrderID:   order.ID,
		PaymentID: payment.ID,
		Reason:    cmd.Reason,
		Refunded:  refund != nil,
	}); err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to publish order cancelled event")
	}

	return order, refund, nil
}

// refundCompleted opens the full refund for a settled payment and asks
// the gateway to reverse the charge.
func (h *CancelOrderWithRefundHandler) refundCompleted(ctx context.Context, order *orderdomain.Order, payment *domain.Payment, cmd CancelOrderWithRefundCommand) (*domain.Refund, error) {
	unresolved, err := h.refunds.HasUnresolved(payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check outstanding refunds: %w", err)
	}
	if unresolved {
		return nil, fmt.Errorf("payment %d already has an unresolved refund", payment.ID)
	}

	refund := &domain.Refund{
		RefundNumber: fmt.Sprintf("REF-%s", uuid.New().String()[:8]),
		PaymentID:    payment.ID,
		OrderID:      order.ID,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
		Status:       domain.RefundStatusPending,
		Reason:       cmd.Reason,
		RequestedBy:  cmd.RequestedBy,
	}
	if err := h.refunds.Create(refund); err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	adapter, err := h.manager.Gateway(payment.GatewayID)
	if err != nil {
		return nil, err
	}
	resp, err := adapter.Refund(ctx, gateway.RefundRequest{
		PaymentID:   payment.ID,
		GatewayTxID: payment.GatewayTxID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Reason:      cmd.Reason,
	})
	if err != nil {
		logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Gateway refund failed, refund stays pending")
		return refund, nil
	}

	if err := h.txs.Create(&domain.PaymentTransaction{
		PaymentID:   payment.ID,
		Type:        domain.TxTypeRefund,
		Status:      resp.Status,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		GatewayTxID: resp.RefundID,
	}); err != nil {
		logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to ledger refund transaction")
	}

	if resp.Success && resp.Status == domain.StatusCompleted {
		if err := h.refunds.UpdateStatus(refund.ID, domain.RefundStatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete refund: %w", err)
		}
		refund.Status = domain.RefundStatusCompleted
		if _, err := h.payments.UpdateStatusIf(payment.ID, domain.StatusCompleted, domain.StatusRefunded); err != nil {
			return nil, fmt.Errorf("failed to mark payment refunded: %w", err)
		}
		if err := h.escrow.Refund(ctx, order.ID); err != nil {
			logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to refund escrow account")
		}
	}

	return refund, nil
}
