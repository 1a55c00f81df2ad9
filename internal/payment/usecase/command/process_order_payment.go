package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medsouq/marketplace/internal/escrow"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/payment/gateway"
	"github.com/medsouq/marketplace/internal/payment/payerrors"
	"github.com/medsouq/marketplace/internal/security"
	"github.com/medsouq/marketplace/kafka"
	"github.com/medsouq/marketplace/pkg/logger"
	"github.com/medsouq/marketplace/pkg/metrics"
)

// FraudScoreThreshold is the risk score above which a payment attempt
// is rejected outright.
const FraudScoreThreshold = 70

// ProcessOrderPaymentCommand runs the payment for an order through
// screening, the gateway, and settlement.
type ProcessOrderPaymentCommand struct {
	OrderID   uint
	IPAddress string
	UserAgent string
	UserCity  string
	ReturnURL string
}

// ProcessOrderPaymentResult is what the caller gets back. Completed
// settles immediately; otherwise RedirectURL/QRCode/Reference tell the
// buyer how to finish the charge.
type ProcessOrderPaymentResult struct {
	Payment     *domain.Payment `json:"payment"`
	Status      string          `json:"status"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	QRCode      string          `json:"qr_code,omitempty"`
	Reference   string          `json:"reference,omitempty"`
}

// CompletionPublisher emits the settlement event consumed by invoice
// generation and analytics.
type CompletionPublisher interface {
	PublishPaymentCompleted(ctx context.Context, event kafka.PaymentCompletedEvent) error
}

// ProcessOrderPaymentHandler orchestrates one payment attempt.
type ProcessOrderPaymentHandler struct {
	orders    orderdomain.OrderRepository
	payments  domain.PaymentRepository
	methods   domain.PaymentMethodRepository
	txs       domain.TransactionRepository
	alerts    domain.FraudAlertRepository
	manager   *gateway.Manager
	cipher    *security.Cipher
	scorer    *security.FraudScorer
	boundary  *payerrors.Boundary
	errs      *payerrors.Handler
	escrow    *escrow.Manager
	publisher CompletionPublisher
}

// NewProcessOrderPaymentHandler creates a new handler
func NewProcessOrderPaymentHandler(
	orders orderdomain.OrderRepository,
	payments domain.PaymentRepository,
	methods domain.PaymentMethodRepository,
	txs domain.TransactionRepository,
	alerts domain.FraudAlertRepository,
	manager *gateway.Manager,
	cipher *security.Cipher,
	scorer *security.FraudScorer,
	boundary *payerrors.Boundary,
	errs *payerrors.Handler,
	escrowManager *escrow.Manager,
	publisher CompletionPublisher,
) *ProcessOrderPaymentHandler {
	return &ProcessOrderPaymentHandler{
		orders:    orders,
		payments:  payments,
		methods:   methods,
		txs:       txs,
		alerts:    alerts,
		manager:   manager,
		cipher:    cipher,
		scorer:    scorer,
		boundary:  boundary,
		errs:      errs,
		escrow:    escrowManager,
		publisher: publisher,
	}
}

// Handle executes one payment attempt for the order. Screening happens
// before any state change, so a rejected attempt leaves the payment
// pending and retryable.
func (h *ProcessOrderPaymentHandler) Handle(ctx context.Context, cmd ProcessOrderPaymentCommand) (*ProcessOrderPaymentResult, *payerrors.PaymentError) {
	order, err := h.orders.FindByID(cmd.OrderID)
	if err != nil {
		return nil, payerrors.New(payerrors.KindValidation, fmt.Sprintf("order %d not found", cmd.OrderID))
	}
	payment, err := h.payments.FindByOrderID(order.ID)
	if err != nil {
		return nil, payerrors.New(payerrors.KindValidation, fmt.Sprintf("no payment for order %d", order.ID))
	}
	if payment.Status == domain.StatusCompleted {
		// Duplicate submit after settlement is a no-op.
		return &ProcessOrderPaymentResult{Payment: payment, Status: payment.Status}, nil
	}
	if payment.Status != domain.StatusPending {
		return nil, payerrors.New(payerrors.KindDuplicateTransaction,
			fmt.Sprintf("payment %d is %s, not pending", payment.ID, payment.Status))
	}

	method, err := h.methods.FindByID(payment.PaymentMethodID)
	if err != nil {
		return nil, payerrors.New(payerrors.KindValidation, "payment method not found")
	}
	if !method.IsVerified {
		return nil, payerrors.New(payerrors.KindValidation, "payment method is not verified")
	}

	if perr := h.screen(ctx, payment, method, cmd); perr != nil {
		return nil, perr
	}

	// Claim the payment. A lost guard means a concurrent attempt or a
	// webhook got here first.
	claimed, err := h.payments.UpdateStatusIf(payment.ID, domain.StatusPending, domain.StatusProcessing)
	if err != nil {
		return nil, h.errs.Handle(ctx, err, h.errContext(payment, cmd))
	}
	if !claimed {
		return nil, payerrors.New(payerrors.KindDuplicateTransaction, "payment is already being processed")
	}
	payment.Status = domain.StatusProcessing

	return h.invokeGateway(ctx, order, payment, method, cmd)
}

// screen runs the boundary, fraud, and compliance checks. No state
// other than fraud alerts is touched.
func (h *ProcessOrderPaymentHandler) screen(ctx context.Context, payment *domain.Payment, method *domain.PaymentMethod, cmd ProcessOrderPaymentCommand) *payerrors.PaymentError {
	if h.boundary.ShouldBlockPayment(ctx, payment.UserID, payerrors.KindGateway) {
		return payerrors.New(payerrors.KindGateway, "too many recent payment failures")
	}

	score, reasons := h.scorer.Score(ctx, security.FraudInput{
		UserID:        payment.UserID,
		Amount:        payment.Amount,
		PaymentMethod: method.Type,
		IPAddress:     cmd.IPAddress,
		UserAgent:     cmd.UserAgent,
	})
	if score > FraudScoreThreshold {
		alert := &domain.FraudAlert{
			PaymentID: payment.ID,
			UserID:    payment.UserID,
			Score:     score,
			Severity:  domain.SeverityHigh,
			Reasons:   strings.Join(reasons, "; "),
		}
		if err := h.alerts.Create(alert); err != nil {
			logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to store fraud alert")
		}
		metrics.FraudAlertsTotal.WithLabelValues(domain.SeverityHigh).Inc()
		logger.Warn(ctx).
			Uint("payment_id", payment.ID).
			Int("score", score).
			Strs("reasons", reasons).
			Msg("Payment rejected by fraud screening")
		return payerrors.New(payerrors.KindFraudDetected, fmt.Sprintf("fraud score %d", score))
	}

	compliance := security.CheckCompliance(security.ComplianceInput{
		Currency:      payment.Currency,
		Amount:        payment.Amount,
		PaymentMethod: method.Type,
		UserCity:      cmd.UserCity,
	})
	if !compliance.Compliant {
		return payerrors.New(payerrors.KindComplianceViolation, strings.Join(compliance.Issues, "; "))
	}
	return nil
}

func (h *ProcessOrderPaymentHandler) invokeGateway(ctx context.Context, order *orderdomain.Order, payment *domain.Payment, method *domain.PaymentMethod, cmd ProcessOrderPaymentCommand) (*ProcessOrderPaymentResult, *payerrors.PaymentError) {
	adapter, err := h.manager.Gateway(payment.GatewayID)
	if err != nil {
		return nil, h.errs.Handle(ctx, err, h.errContext(payment, cmd))
	}

	account, err := h.cipher.Detokenize(method.AccountToken)
	if err != nil {
		return nil, h.errs.Handle(ctx,
			payerrors.New(payerrors.KindValidation, "stored payment method cannot be decoded"),
			h.errContext(payment, cmd))
	}

	initResp, err := adapter.Initiate(ctx, gateway.InitiateRequest{
		PaymentID:   payment.ID,
		OrderNumber: order.OrderNumber,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Account:     account,
		ReturnURL:   cmd.ReturnURL,
	})
	if err != nil {
		h.boundary.RecordError(ctx, payment.UserID, payerrors.KindGateway)
		return nil, h.errs.Handle(ctx, err, h.errContext(payment, cmd))
	}

	// Reconciliation and webhooks both look payments up by this id, so
	// an adapter that only fills TransactionID must not leave it empty.
	payment.GatewayTxID = initResp.GatewayTxID
	if payment.GatewayTxID == "" {
		payment.GatewayTxID = initResp.TransactionID
	}
	payment.UserAgent = cmd.UserAgent
	if err := h.payments.Update(payment); err != nil {
		return nil, h.errs.Handle(ctx, err, h.errContext(payment, cmd))
	}

	if err := h.txs.Create(&domain.PaymentTransaction{
		PaymentID:   payment.ID,
		Type:        domain.TxTypeCharge,
		Status:      initResp.Status,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		GatewayTxID: payment.GatewayTxID,
	}); err != nil {
		logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to ledger charge transaction")
	}

	// Only a normalized completed settles the payment. Anything else
	// leaves it processing with the provider's continuation data.
	if initResp.Status == domain.StatusCompleted {
		if perr := h.settle(ctx, order, payment, cmd); perr != nil {
			return nil, perr
		}
		return &ProcessOrderPaymentResult{Payment: payment, Status: domain.StatusCompleted}, nil
	}
	if initResp.Status == domain.StatusFailed {
		return nil, h.errs.Handle(ctx,
			payerrors.New(payerrors.KindGateway, "gateway rejected the charge"),
			h.errContext(payment, cmd))
	}

	metrics.PaymentsTotal.WithLabelValues(adapter.Name(), domain.StatusProcessing).Inc()
	return &ProcessOrderPaymentResult{
		Payment:     payment,
		Status:      domain.StatusProcessing,
		RedirectURL: initResp.RedirectURL,
		QRCode:      initResp.QRCode,
		Reference:   initResp.Reference,
	}, nil
}

// settle finalizes a completed charge: payment completed, order
// confirmed, escrow funded, completion event published.
func (h *ProcessOrderPaymentHandler) settle(ctx context.Context, order *orderdomain.Order, payment *domain.Payment, cmd ProcessOrderPaymentCommand) *payerrors.PaymentError {
	now := time.Now()
	if err := h.payments.MarkCompleted(payment.ID, payment.GatewayTxID, now); err != nil {
		return h.errs.Handle(ctx, err, h.errContext(payment, cmd))
	}
	payment.Status = domain.StatusCompleted
	payment.ProcessedAt = &now

	if _, err := h.orders.UpdateStatusIf(order.ID, orderdomain.StatusPending, orderdomain.StatusConfirmed); err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to confirm order")
	}

	if _, err := h.escrow.Fund(ctx, order.ID, payment.ID, payment.Amount, payment.Currency); err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to fund escrow account")
	}

	adapterName := ""
	if adapter, err := h.manager.Gateway(payment.GatewayID); err == nil {
		adapterName = adapter.Name()
	}
	metrics.PaymentsTotal.WithLabelValues(adapterName, domain.StatusCompleted).Inc()

	if err := h.publisher.PublishPaymentCompleted(ctx, kafka.PaymentCompletedEvent{
		PaymentID:   payment.ID,
		OrderID:     order.ID,
		UserID:      payment.UserID,
		GatewayID:   payment.GatewayID,
		Provider:    adapterName,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		GatewayTxID: payment.GatewayTxID,
	}); err != nil {
		logger.Error(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Failed to publish payment completed event")
	}

	logger.Info(ctx).
		Uint("payment_id", payment.ID).
		Uint("order_id", order.ID).
		Float64("amount", payment.Amount).
		Msg("Payment completed")
	return nil
}

func (h *ProcessOrderPaymentHandler) errContext(payment *domain.Payment, cmd ProcessOrderPaymentCommand) payerrors.Context {
	return payerrors.Context{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		UserID:    payment.UserID,
		GatewayID: payment.GatewayID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		IPAddress: cmd.IPAddress,
	}
}
