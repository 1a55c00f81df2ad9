package command

import (
	"context"

	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/payment/payerrors"
)

// RetryPaymentCommand re-runs a failed or stuck payment attempt.
type RetryPaymentCommand struct {
	PaymentID uint
	IPAddress string
	UserAgent string
	UserCity  string
	ReturnURL string
}

// RetryPaymentHandler resets the payment via the error handler's retry
// policy, then runs the normal processing flow again.
type RetryPaymentHandler struct {
	payments domain.PaymentRepository
	errs     *payerrors.Handler
	process  *ProcessOrderPaymentHandler
}

// NewRetryPaymentHandler creates a new handler
func NewRetryPaymentHandler(
	payments domain.PaymentRepository,
	errs *payerrors.Handler,
	process *ProcessOrderPaymentHandler,
) *RetryPaymentHandler {
	return &RetryPaymentHandler{payments: payments, errs: errs, process: process}
}

// Handle executes the command
func (h *RetryPaymentHandler) Handle(ctx context.Context, cmd RetryPaymentCommand) (*ProcessOrderPaymentResult, *payerrors.PaymentError) {
	payment, perr := h.errs.Retry(ctx, cmd.PaymentID, payerrors.DefaultMaxRetries)
	if perr != nil {
		return nil, perr
	}

	return h.process.Handle(ctx, ProcessOrderPaymentCommand{
		OrderID:   payment.OrderID,
		IPAddress: cmd.IPAddress,
		UserAgent: cmd.UserAgent,
		UserCity:  cmd.UserCity,
		ReturnURL: cmd.ReturnURL,
	})
}
