package invoice

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/invoice/domain"
	"github.com/medsouq/marketplace/kafka"
)

type memInvoiceRepo struct {
	nextID   uint
	invoices map[uint]*domain.Invoice
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{nextID: 1, invoices: map[uint]*domain.Invoice{}}
}

func (r *memInvoiceRepo) Create(invoice *domain.Invoice) error {
	invoice.ID = r.nextID
	r.nextID++
	copied := *invoice
	r.invoices[invoice.ID] = &copied
	return nil
}

func (r *memInvoiceRepo) FindByID(id uint) (*domain.Invoice, error) {
	invoice, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invoice
	return &copied, nil
}

func (r *memInvoiceRepo) FindByOrderID(orderID uint) (*domain.Invoice, error) {
	for _, invoice := range r.invoices {
		if invoice.OrderID == orderID {
			copied := *invoice
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memInvoiceRepo) FindByUserID(userID uint, limit, offset int) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, invoice := range r.invoices {
		if invoice.UserID == userID {
			out = append(out, *invoice)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) UpdateStatus(id uint, status string) error {
	invoice, ok := r.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	invoice.Status = status
	return nil
}

func TestGenerateForPayment(t *testing.T) {
	repo := newMemInvoiceRepo()
	gen := NewGenerator(repo)

	invoice, err := gen.GenerateForPayment(context.Background(), 20, 10, 5, 950.0, "LYD")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(invoice.InvoiceNumber, "INV-"))
	assert.Equal(t, domain.StatusPaid, invoice.Status)
	assert.Equal(t, 950.0, invoice.Total)
	require.NotNil(t, invoice.PaidAt)
}

func TestGenerateForPaymentIsIdempotentPerOrder(t *testing.T) {
	repo := newMemInvoiceRepo()
	gen := NewGenerator(repo)
	ctx := context.Background()

	first, err := gen.GenerateForPayment(ctx, 20, 10, 5, 950.0, "LYD")
	require.NoError(t, err)
	second, err := gen.GenerateForPayment(ctx, 20, 10, 5, 950.0, "LYD")
	require.NoError(t, err)

	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.Len(t, repo.invoices, 1)
}

func TestHandlePaymentCompleted(t *testing.T) {
	repo := newMemInvoiceRepo()
	gen := NewGenerator(repo)

	payload, err := json.Marshal(kafka.PaymentCompletedEvent{
		PaymentID: 20,
		OrderID:   10,
		UserID:    5,
		Amount:    1200.0,
		Currency:  "LYD",
	})
	require.NoError(t, err)

	require.NoError(t, gen.HandlePaymentCompleted(context.Background(), payload))

	invoice, err := repo.FindByOrderID(10)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, invoice.Subtotal)

	assert.Error(t, gen.HandlePaymentCompleted(context.Background(), []byte("{not json")))
}
