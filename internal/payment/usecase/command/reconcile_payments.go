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
)

// ReconcileIssue records one payment the batch could not verify.
type ReconcileIssue struct {
	PaymentID uint   `json:"payment_id"`
	Issue     string `json:"issue"`
}

// ReconcilePaymentsHandler verifies settled payments against the
// provider and confirms externally settled bank transfers.
type ReconcilePaymentsHandler struct {
	orders    orderdomain.OrderRepository
	payments  domain.PaymentRepository
	txs       domain.TransactionRepository
	manager   *gateway.Manager
	escrow    *escrow.Manager
	publisher CompletionPublisher
}

// NewReconcilePaymentsHandler creates a new handler
func NewReconcilePaymentsHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	txs domain.TransactionRepository,
	manager *gateway.Manager,
	escrowManager *escrow.Manager,
	publisher CompletionPublisher,
) *ReconcilePaymentsHandler {
	return &ReconcilePaymentsHandler{
		orders:    orders,
		payments:  payments,
		txs:       txs,
		manager:   manager,
		escrow:    escrowManager,
		publisher: publisher,
	}
}

// HandleBatch re-checks completed payments that have not been
// reconciled yet. Partial completion is fine; every mismatch is
// collected rather than aborting the batch.
func (h *ReconcilePaymentsHandler) HandleBatch(ctx context.Context, batchSize int) (int, []ReconcileIssue, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	payments, err := h.payments.FindCompletedUnreconciled(batchSize)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list unreconciled payments: %w", err)
	}

	var issues []ReconcileIssue
	reconciled := 0
	for _, payment := range payments {
		adapter, err := h.manager.Gateway(payment.GatewayID)
		if err != nil {
			issues = append(issues, ReconcileIssue{PaymentID: payment.ID, Issue: err.Error()})
			continue
		}

		status, err := adapter.CheckStatus(ctx, payment.GatewayTxID)
		if err != nil {
			issues = append(issues, ReconcileIssue{PaymentID: payment.ID, Issue: err.Error()})
			continue
		}
		if status.Status != domain.StatusCompleted {
			issues = append(issues, ReconcileIssue{
				PaymentID: payment.ID,
				Issue:     fmt.Sprintf("provider reports %s, local record is completed", status.Status),
			})
			continue
		}

		if err := h.payments.MarkReconciled(payment.ID, time.Now()); err != nil {
			issues = append(issues, ReconcileIssue{PaymentID: payment.ID, Issue: err.Error()})
			continue
		}
		reconciled++
	}

	logger.Info(ctx).
		Int("checked", len(payments)).
		Int("reconciled", reconciled).
		Int("issues", len(issues)).
		Msg("Payment reconciliation pass finished")
	return reconciled, issues, nil
}

// ConfirmBankTransfer is the admin reconciliation for bank transfers:
// the operator confirms (or denies) that the funds arrived.
func (h *ReconcilePaymentsHandler) ConfirmBankTransfer(ctx context.Context, paymentID uint, received bool, note string) (*domain.Payment, error) {
	payment, err := h.payments.FindByID(paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment %d not found: %w", paymentID, err)
	}

	if payment.Status == domain.StatusCompleted {
		// Already settled, a repeated confirmation changes nothing.
		return payment, nil
	}

	if !received {
		changed, err := h.payments.UpdateStatusIf(payment.ID, payment.Status, domain.StatusFailed)
		if err != nil {
			return nil, err
		}
		if changed {
			payment.Status = domain.StatusFailed
		}
		return payment, nil
	}

	// Guard on the current status so a double confirmation is a no-op.
	changed, err := h.payments.UpdateStatusIf(payment.ID, payment.Status, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !changed {
		return h.payments.FindByID(paymentID)
	}

	now := time.Now()
	if err := h.payments.MarkCompleted(payment.ID, payment.GatewayTxID, now); err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
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
		logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to ledger reconciliation capture")
	}

	if _, err := h.orders.UpdateStatusIf(payment.OrderID, orderdomain.StatusPending, orderdomain.StatusConfirmed); err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", payment.OrderID).Msg("Failed to confirm order")
	}
	if _, err := h.escrow.Fund(ctx, payment.OrderID, payment.ID, payment.Amount, payment.Currency); err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", payment.OrderID).Msg("Failed to fund escrow account")
	}

	provider := ""
	if adapter, err := h.manager.Gateway(payment.GatewayID); err == nil {
		provider = adapter.Name()
	}
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
		Str("note", note).
		Msg("Bank transfer reconciled")
	return payment, nil
}
