package payerrors

import (
	"context"
	"fmt"

	auditdomain "github.com/medsouq/marketplace/internal/audit/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/pkg/logger"
	"github.com/medsouq/marketplace/pkg/metrics"
)

// Context carries what the handler needs to act on a failure.
type Context struct {
	PaymentID uint
	OrderID   uint
	UserID    uint
	GatewayID uint
	Amount    float64
	Currency  string
	IPAddress string
}

// Notifier delivers critical alerts to operators. The kafka publisher
// implements it in production.
type Notifier interface {
	NotifyCritical(ctx context.Context, kind string, payload map[string]any) error
}

// Handler classifies failures, journals them, and moves the payment to
// the state its retryability dictates. It never re-throws: callers get
// the typed error back for presentation.
type Handler struct {
	payments     domain.PaymentRepository
	transactions domain.TransactionRepository
	audit        auditdomain.AuditRepository
	notifier     Notifier
}

func NewHandler(
	payments domain.PaymentRepository,
	transactions domain.TransactionRepository,
	audit auditdomain.AuditRepository,
	notifier Notifier,
) *Handler {
	return &Handler{
		payments:     payments,
		transactions: transactions,
		audit:        audit,
		notifier:     notifier,
	}
}

// Handle runs the full side-effect pipeline for a failure. The audit
// record is written regardless of classification outcome.
func (h *Handler) Handle(ctx context.Context, err error, ec Context) *PaymentError {
	perr := Classify(err)
	metrics.PaymentErrorsTotal.WithLabelValues(string(perr.Kind)).Inc()

	logger.Warn(ctx).
		Str("kind", string(perr.Kind)).
		Bool("retryable", perr.Retryable).
		Uint("payment_id", ec.PaymentID).
		Uint("user_id", ec.UserID).
		Str("cause", perr.Message).
		Msg("Payment error handled")

	record, auditErr := auditdomain.NewRecord(ec.UserID, "payment_error", fmt.Sprintf("payment:%d", ec.PaymentID), map[string]any{
		"kind":       perr.Kind,
		"message":    perr.Message,
		"payment_id": ec.PaymentID,
		"order_id":   ec.OrderID,
		"gateway_id": ec.GatewayID,
		"amount":     ec.Amount,
		"currency":   ec.Currency,
	})
	if auditErr == nil {
		record.IPAddress = ec.IPAddress
		if auditErr = h.audit.Create(record); auditErr != nil {
			logger.Error(ctx).Err(auditErr).Msg("Failed to persist payment error audit record")
		}
	}

	if ec.PaymentID != 0 {
		if perr.Retryable {
			// Retryable failures leave the payment pending so a retry
			// can proceed.
			if err := h.payments.UpdateStatus(ec.PaymentID, domain.StatusPending); err != nil {
				logger.Error(ctx).Err(err).Uint("payment_id", ec.PaymentID).Msg("Failed to reset payment to pending")
			}
		} else {
			if err := h.payments.UpdateStatus(ec.PaymentID, domain.StatusFailed); err != nil {
				logger.Error(ctx).Err(err).Uint("payment_id", ec.PaymentID).Msg("Failed to mark payment failed")
			}
			if err := h.transactions.Create(&domain.PaymentTransaction{
				PaymentID:     ec.PaymentID,
				Type:          domain.TxTypeCharge,
				Status:        domain.StatusFailed,
				Amount:        ec.Amount,
				Currency:      ec.Currency,
				FailureReason: string(perr.Kind),
			}); err != nil {
				logger.Error(ctx).Err(err).Uint("payment_id", ec.PaymentID).Msg("Failed to record failed transaction")
			}
		}
	}

	if perr.Kind.IsCritical() && h.notifier != nil {
		if err := h.notifier.NotifyCritical(ctx, string(perr.Kind), map[string]any{
			"payment_id": ec.PaymentID,
			"user_id":    ec.UserID,
			"message":    perr.Message,
		}); err != nil {
			logger.Error(ctx).Err(err).Msg("Failed to send critical payment notification")
		}
	}

	return perr
}

// DefaultMaxRetries bounds how often one payment may be re-attempted.
const DefaultMaxRetries = 3

// Retry checks and advances the payment's retry budget. On success the
// payment is reset to pending and the caller re-invokes the gateway.
func (h *Handler) Retry(ctx context.Context, paymentID uint, maxRetries int) (*domain.Payment, *PaymentError) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	payment, err := h.payments.FindByID(paymentID)
	if err != nil {
		return nil, New(KindSystem, fmt.Sprintf("payment %d not found: %v", paymentID, err))
	}

	if payment.RetryCount() >= maxRetries {
		return nil, New(KindSystem, fmt.Sprintf("payment %d exhausted its %d retries", paymentID, maxRetries))
	}

	payment.IncrementRetryCount()
	payment.Status = domain.StatusPending
	if err := h.payments.Update(payment); err != nil {
		return nil, New(KindSystem, fmt.Sprintf("failed to reset payment %d: %v", paymentID, err))
	}

	logger.Info(ctx).
		Uint("payment_id", paymentID).
		Int("retry_count", payment.RetryCount()).
		Msg("Payment reset for retry")
	return payment, nil
}
