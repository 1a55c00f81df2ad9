// Package invoice issues billing documents for completed payments.
package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/invoice/domain"
	"github.com/medsouq/marketplace/kafka"
	"github.com/medsouq/marketplace/pkg/logger"
)

// DefaultTaxRate is applied to every invoice subtotal.
const DefaultTaxRate = 0.0

// Generator creates invoices, normally driven by payment completion
// events.
type Generator struct {
	repo    domain.InvoiceRepository
	taxRate float64
}

func NewGenerator(repo domain.InvoiceRepository) *Generator {
	return &Generator{repo: repo, taxRate: DefaultTaxRate}
}

// GenerateForPayment issues the invoice for a completed payment. One
// invoice per order; a duplicate event returns the existing invoice.
func (g *Generator) GenerateForPayment(ctx context.Context, paymentID, orderID, userID uint, amount float64, currencyCode string) (*domain.Invoice, error) {
	if existing, err := g.repo.FindByOrderID(orderID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}

	tax := math.Round(amount*g.taxRate*100) / 100
	now := time.Now()
	invoice := &domain.Invoice{
		InvoiceNumber: newInvoiceNumber(),
		OrderID:       orderID,
		PaymentID:     paymentID,
		UserID:        userID,
		Subtotal:      amount,
		TaxAmount:     tax,
		Total:         amount + tax,
		Currency:      currencyCode,
		Status:        domain.StatusPaid,
		IssuedAt:      now,
		PaidAt:        &now,
	}
	if err := g.repo.Create(invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	logger.Info(ctx).
		Str("invoice_number", invoice.InvoiceNumber).
		Uint("order_id", orderID).
		Msg("Invoice issued")
	return invoice, nil
}

// HandlePaymentCompleted is the consumer hook for payment completion
// events.
func (g *Generator) HandlePaymentCompleted(ctx context.Context, payload []byte) error {
	var event kafka.PaymentCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode payment completed event: %w", err)
	}

	_, err := g.GenerateForPayment(ctx, event.PaymentID, event.OrderID, event.UserID, event.Amount, event.Currency)
	return err
}

func newInvoiceNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("INV-%s-%s", time.Now().Format("20060102"), id[:8])
}
