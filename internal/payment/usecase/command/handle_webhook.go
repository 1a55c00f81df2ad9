package command

import (
	"context"
	"fmt"
	"time"

	"github.com/medsouq/marketplace/internal/escrow"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/payment/gateway"
	"github.com/medsouq/marketplace/kafka"
	"github.com/medsouq/marketplace/pkg/logger"
	"github.com/medsouq/marketplace/pkg/metrics"
)

// WebhookCommand is a provider callback, already HMAC-verified by the
// transport layer.
type WebhookCommand struct {
	Provider    string
	GatewayTxID string
	// Status is the provider-native status string; it is normalized
	// through the provider's adapter vocabulary by CheckStatus below.
	Status string
}

// HandleWebhookHandler applies provider callbacks to payments. Double
// deliveries are idempotent thanks to status-guarded updates.
type HandleWebhookHandler struct {
	orders    orderdomain.OrderRepository
	payments  domain.PaymentRepository
	txs       domain.TransactionRepository
	manager   *gateway.Manager
	escrow    *escrow.Manager
	publisher CompletionPublisher
}

// NewHandleWebhookHandler creates a new handler
func NewHandleWebhookHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	txs domain.TransactionRepository,
	manager *gateway.Manager,
	escrowManager *escrow.Manager,
	publisher CompletionPublisher,
) *HandleWebhookHandler {
	return &HandleWebhookHandler{
		orders:    orders,
		payments:  payments,
		txs:       txs,
		manager:   manager,
		escrow:    escrowManager,
		publisher: publisher,
	}
}

// Handle executes the command
func (h *HandleWebhookHandler) Handle(ctx context.Context, cmd WebhookCommand) (*domain.Payment, error) {
	payment, err := h.payments.FindByGatewayTxID(cmd.GatewayTxID)
	if err != nil {
		return nil, fmt.Errorf("no payment for gateway transaction %s: %w", cmd.GatewayTxID, err)
	}

	adapter, err := h.manager.Gateway(payment.GatewayID)
	if err != nil {
		return nil, err
	}

	// Never trust the callback status alone: re-check with the
	// provider, which also normalizes the vocabulary.
	status, err := adapter.CheckStatus(ctx, cmd.GatewayTxID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook status with provider: %w", err)
	}

	switch status.Status {
	case domain.StatusCompleted:
		return h.complete(ctx, payment, adapter.Name())
	case domain.StatusFailed:
		changed, err := h.payments.UpdateStatusIf(payment.ID, payment.Status, domain.StatusFailed)
		if err != nil {
			return nil, err
		}
		if changed {
			payment.Status = domain.StatusFailed
			if err := h.txs.Create(&domain.PaymentTransaction{
				PaymentID:     payment.ID,
				Type:          domain.TxTypeCharge,
				Status:        domain.StatusFailed,
				Amount:        payment.Amount,
				Currency:      payment.Currency,
				GatewayTxID:   cmd.GatewayTxID,
				FailureReason: status.FailureReason,
			}); err != nil {
				logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to ledger webhook failure")
			}
			metrics.PaymentsTotal.WithLabelValues(adapter.Name(), domain.StatusFailed).Inc()
		}
		return payment, nil
	default:
		// Pending or processing callbacks carry no state change.
		logger.Debug(ctx).
			Uint("payment_id", payment.ID).
			Str("status", status.Status).
			Msg("Webhook carried no terminal status")
		return payment, nil
	}
}

func (h *HandleWebhookHandler) complete(ctx context.Context, payment *domain.Payment, provider string) (*domain.Payment, error) {
	if payment.Status == domain.StatusCompleted {
		// Second delivery of the same webhook; the first one won.
		return payment, nil
	}

	changed, err := h.payments.UpdateStatusIf(payment.ID, payment.Status, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !changed {
		// A concurrent delivery won the guard.
		return h.payments.FindByID(payment.ID)
	}

	now := time.Now()
	if err := h.payments.MarkCompleted(payment.ID, payment.GatewayTxID, now); err != nil {
		return nil, err
	}
	payment.Status = domain.StatusCompleted
	payment.ProcessedAt = &now

	if err := h.txs.Create(&domain.PaymentTransaction{
		PaymentID:   payment.ID,
		Type:        domain.TxTypeCapture,
		Status:      domain.StatusCompleted,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		GatewayTxID: payment.GatewayTxID,
	}); err != nil {
		logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to ledger webhook capture")
	}

	if _, err := h.orders.UpdateStatusIf(payment.OrderID, orderdomain.StatusPending, orderdomain.StatusConfirmed); err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", payment.OrderID).Msg("Failed to confirm order")
	}
	if _, err := h.escrow.Fund(ctx, payment.OrderID, payment.ID, payment.Amount, payment.Currency); err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", payment.OrderID).Msg("Failed to fund escrow account")
	}

	metrics.PaymentsTotal.WithLabelValues(provider, domain.StatusCompleted).Inc()
	if err := h.publisher.PublishPaymentCompleted(ctx, kafka.PaymentCompletedEvent{
		PaymentID:   payment.ID,
		OrderID:     payment.OrderID,
		UserID:      payment.UserID,
		GatewayID:   payment.GatewayID,
		Provider:    provider,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		GatewayTxID: payment.GatewayTxID,
	}); err != nil {
		logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to publish payment completed event")
	}

	logger.Info(ctx).
		Uint("payment_id", payment.ID).
		Str("provider", provider).
		Msg("Payment completed via webhook")
	return payment, nil
}
