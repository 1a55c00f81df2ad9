package command

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	auditdomain "github.com/medsouq/marketplace/internal/audit/domain"
	"github.com/medsouq/marketplace/internal/escrow"
	escrowdomain "github.com/medsouq/marketplace/internal/escrow/domain"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
	"github.com/medsouq/marketplace/internal/payment/gateway"
	"github.com/medsouq/marketplace/internal/payment/payerrors"
	"github.com/medsouq/marketplace/internal/security"
	"github.com/medsouq/marketplace/kafka"
)

// --- in-memory fakes ---

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uint]*orderdomain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uint]*orderdomain.Order{}}
}

func (r *fakeOrderRepo) Create(_ *gorm.DB, order *orderdomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = uint(len(r.orders) + 1)
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) FindByID(id uint) (*orderdomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) FindByBuyerID(buyerID uint, limit, offset int) ([]orderdomain.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) UpdateStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		order.Status = status
	}
	return nil
}

func (r *fakeOrderRepo) UpdateStatusIf(id uint, expected, status string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != expected {
		return false, nil
	}
	order.Status = status
	return true, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uint]*domain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uint]*domain.Payment{}}
}

func (r *fakePaymentRepo) Create(_ *gorm.DB, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uint(len(r.payments) + 1)
	copied := *p
	r.payments[p.ID] = &copied
	return nil
}

func (r *fakePaymentRepo) FindByID(id uint) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) FindByOrderID(orderID uint) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) FindByGatewayTxID(gatewayTxID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.GatewayTxID == gatewayTxID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) FindByUserID(userID uint, limit, offset int) ([]domain.Payment, error) {
	return nil, nil
}

func (r *fakePaymentRepo) FindAll(limit, offset int) ([]domain.Payment, error) { return nil, nil }

func (r *fakePaymentRepo) FindCompletedUnreconciled(limit int) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Payment
	for _, p := range r.payments {
		if p.Status == domain.StatusCompleted && p.ReconciledAt == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Update(p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.payments[p.ID] = &copied
	return nil
}

func (r *fakePaymentRepo) UpdateStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		p.Status = status
	}
	return nil
}

func (r *fakePaymentRepo) UpdateStatusIf(id uint, expected, status string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status != expected {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (r *fakePaymentRepo) MarkCompleted(id uint, gatewayTxID string, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = domain.StatusCompleted
	p.GatewayTxID = gatewayTxID
	p.ProcessedAt = &processedAt
	return nil
}

func (r *fakePaymentRepo) MarkReconciled(id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		p.ReconciledAt = &at
	}
	return nil
}

func (r *fakePaymentRepo) CountByUserSince(userID uint, since time.Time) (int, error) {
	return 0, nil
}

func (r *fakePaymentRepo) RecentUserAgents(userID uint, limit int) ([]string, error) {
	return nil, nil
}

type fakeMethodRepo struct {
	methods map[uint]*domain.PaymentMethod
}

func (r *fakeMethodRepo) Create(m *domain.PaymentMethod) error { return nil }

func (r *fakeMethodRepo) FindByID(id uint) (*domain.PaymentMethod, error) {
	m, ok := r.methods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMethodRepo) FindByUserID(userID uint) ([]domain.PaymentMethod, error) {
	return nil, nil
}

func (r *fakeMethodRepo) MarkVerified(id uint) error { return nil }

type fakeTxRepo struct {
	mu  sync.Mutex
	txs []domain.PaymentTransaction
}

func (r *fakeTxRepo) Create(tx *domain.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *fakeTxRepo) FindByPaymentID(paymentID uint) ([]domain.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PaymentTransaction
	for _, tx := range r.txs {
		if tx.PaymentID == paymentID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeAlertRepo struct {
	alerts []domain.FraudAlert
}

func (r *fakeAlertRepo) Create(alert *domain.FraudAlert) error {
	r.alerts = append(r.alerts, *alert)
	return nil
}

func (r *fakeAlertRepo) FindUnresolved(limit, offset int) ([]domain.FraudAlert, error) {
	return r.alerts, nil
}

func (r *fakeAlertRepo) Resolve(id uint, resolvedBy uint) error { return nil }

type fakeAuditRepo struct {
	records []auditdomain.Record
}

func (r *fakeAuditRepo) Create(record *auditdomain.Record) error {
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeAuditRepo) FindByAction(action string, limit, offset int) ([]auditdomain.Record, error) {
	return r.records, nil
}

func (r *fakeAuditRepo) FindByUserID(userID uint, limit, offset int) ([]auditdomain.Record, error) {
	return r.records, nil
}

type fakeConfigRepo struct {
	configs []domain.GatewayConfig
}

func (r *fakeConfigRepo) FindActive() ([]domain.GatewayConfig, error) { return r.configs, nil }

func (r *fakeConfigRepo) FindByID(id uint) (*domain.GatewayConfig, error) {
	for _, cfg := range r.configs {
		if cfg.ID == id {
			copied := cfg
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type capturedEvents struct {
	mu        sync.Mutex
	completed []kafka.PaymentCompletedEvent
	cancelled []kafka.OrderCancelledEvent
	critical  int
}

func (c *capturedEvents) PublishPaymentCompleted(_ context.Context, event kafka.PaymentCompletedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, event)
	return nil
}

func (c *capturedEvents) PublishOrderCancelled(_ context.Context, event kafka.OrderCancelledEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = append(c.cancelled, event)
	return nil
}

func (c *capturedEvents) NotifyCritical(_ context.Context, kind string, details map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.critical++
	return nil
}

type memEscrowRepo struct {
	mu       sync.Mutex
	nextID   uint
	accounts map[uint]*escrowdomain.Account
}

func newMemEscrowRepo() *memEscrowRepo {
	return &memEscrowRepo{nextID: 1, accounts: map[uint]*escrowdomain.Account{}}
}

func (r *memEscrowRepo) Create(account *escrowdomain.Account, entry *escrowdomain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account.ID = r.nextID
	r.nextID++
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *memEscrowRepo) FindByOrderID(orderID uint) (*escrowdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.OrderID == orderID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memEscrowRepo) FindExpired(now time.Time, limit int) ([]escrowdomain.Account, error) {
	return nil, nil
}

func (r *memEscrowRepo) UpdateLocked(accountID uint, fn func(*escrowdomain.Account) (*escrowdomain.LedgerEntry, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	working := *account
	if _, err := fn(&working); err != nil {
		return err
	}
	*account = working
	return nil
}

// --- test fixture ---

type fixture struct {
	orders   *fakeOrderRepo
	payments *fakePaymentRepo
	methods  *fakeMethodRepo
	txs      *fakeTxRepo
	alerts   *fakeAlertRepo
	events   *capturedEvents
	escrow   *memEscrowRepo
	history  *paymentHistory
	handler  *ProcessOrderPaymentHandler
}

func newFixture(t *testing.T, gatewayURL string) *fixture {
	t.Helper()

	cipher, err := security.NewCipher("test-secret-key", "test-salt")
	require.NoError(t, err)
	encryptedKey, err := cipher.Encrypt("provider-api-key")
	require.NoError(t, err)

	configs := &fakeConfigRepo{configs: []domain.GatewayConfig{{
		ID:                  1,
		Name:                "Sadad Wallet",
		Provider:            domain.ProviderSadad,
		Type:                domain.MethodMobileMoney,
		BaseURL:             gatewayURL,
		APIKeyEncrypted:     encryptedKey,
		SupportedCurrencies: "LYD",
		IsActive:            true,
	}}}

	f := &fixture{
		orders:   newFakeOrderRepo(),
		payments: newFakePaymentRepo(),
		methods:  &fakeMethodRepo{methods: map[uint]*domain.PaymentMethod{}},
		txs:      &fakeTxRepo{},
		alerts:   &fakeAlertRepo{},
		events:   &capturedEvents{},
		escrow:   newMemEscrowRepo(),
	}

	manager, err := gateway.NewManager(configs, f.payments, cipher)
	require.NoError(t, err)

	f.history = &paymentHistory{}
	errHandler := payerrors.NewHandler(f.payments, f.txs, &fakeAuditRepo{}, f.events)
	f.handler = NewProcessOrderPaymentHandler(
		f.orders, f.payments, f.methods, f.txs, f.alerts,
		manager, cipher,
		security.NewFraudScorer(f.history),
		payerrors.NewBoundary(payerrors.NewMemoryBoundaryStore()),
		errHandler,
		escrow.NewManager(f.escrow),
		f.events,
	)
	return f
}

type paymentHistory struct {
	recentCount int
}

func (h *paymentHistory) CountRecentPayments(_ context.Context, _ uint, _ time.Time) (int, error) {
	return h.recentCount, nil
}

func (h *paymentHistory) RecentUserAgents(_ context.Context, _ uint, _ int) ([]string, error) {
	return nil, nil
}

func (f *fixture) seedOrder(t *testing.T, amount float64) (*orderdomain.Order, *domain.Payment) {
	t.Helper()

	cipher, err := security.NewCipher("test-secret-key", "test-salt")
	require.NoError(t, err)
	token, err := cipher.Tokenize("0912345678")
	require.NoError(t, err)

	order := &orderdomain.Order{
		OrderNumber: "ORD-TEST0001",
		BuyerID:     7,
		SellerID:    9,
		TotalAmount: amount,
		Currency:    "LYD",
		Status:      orderdomain.StatusPending,
	}
	require.NoError(t, f.orders.Create(nil, order))

	f.methods.methods[3] = &domain.PaymentMethod{
		ID:            3,
		UserID:        7,
		GatewayID:     1,
		Type:          domain.MethodMobileMoney,
		AccountToken:  token,
		MaskedAccount: "091***678",
		IsVerified:    true,
	}

	payment := &domain.Payment{
		OrderID:         order.ID,
		UserID:          7,
		PaymentMethodID: 3,
		GatewayID:       1,
		Amount:          amount,
		Currency:        "LYD",
		Status:          domain.StatusPending,
	}
	require.NoError(t, f.payments.Create(nil, payment))
	return order, payment
}

func mobileMoneyServer(t *testing.T, initiateStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/charges":
			json.NewEncoder(w).Encode(map[string]any{
				"transaction_id": "MM-9001",
				"status":         initiateStatus,
				"qr_code":        "QR-DATA",
			})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/refunds":
			json.NewEncoder(w).Encode(map[string]any{
				"refund_id": "RF-5001",
				"status":    "success",
			})
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"status":   initiateStatus,
				"amount":   500.0,
				"currency": "LYD",
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

// --- tests ---

func TestProcessOrderPaymentCompletesImmediately(t *testing.T) {
	server := mobileMoneyServer(t, "success")
	defer server.Close()
	f := newFixture(t, server.URL)
	order, payment := f.seedOrder(t, 500.0)

	result, perr := f.handler.Handle(context.Background(), ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.Nil(t, perr)

	assert.Equal(t, domain.StatusCompleted, result.Status)
	stored, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)

	updatedOrder, err := f.orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusConfirmed, updatedOrder.Status)

	account, err := f.escrow.FindByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, account.HeldAmount)

	require.Len(t, f.events.completed, 1)
	assert.Equal(t, payment.ID, f.events.completed[0].PaymentID)
}

func TestProcessOrderPaymentReturnsQRWhilePending(t *testing.T) {
	server := mobileMoneyServer(t, "initiated")
	defer server.Close()
	f := newFixture(t, server.URL)
	order, payment := f.seedOrder(t, 500.0)

	result, perr := f.handler.Handle(context.Background(), ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.Nil(t, perr)

	assert.Equal(t, domain.StatusProcessing, result.Status)
	assert.Equal(t, "QR-DATA", result.QRCode)

	stored, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
	assert.Equal(t, "MM-9001", stored.GatewayTxID)
	assert.Empty(t, f.events.completed)
}

func TestProcessOrderPaymentRejectsFraudAndLeavesPaymentPending(t *testing.T) {
	server := mobileMoneyServer(t, "success")
	defer server.Close()
	f := newFixture(t, server.URL)
	// Large amount, private source IP and a payment burst together push
	// the score past the rejection threshold.
	f.history.recentCount = 6
	order, payment := f.seedOrder(t, 12000.0)

	_, perr := f.handler.Handle(context.Background(), ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "192.168.1.20",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.NotNil(t, perr)
	assert.Equal(t, payerrors.KindFraudDetected, perr.Kind)

	stored, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, domain.SeverityHigh, f.alerts.alerts[0].Severity)
	assert.Greater(t, f.alerts.alerts[0].Score, FraudScoreThreshold)
}

func TestProcessOrderPaymentRejectsUnverifiedMethod(t *testing.T) {
	server := mobileMoneyServer(t, "success")
	defer server.Close()
	f := newFixture(t, server.URL)
	order, _ := f.seedOrder(t, 500.0)
	f.methods.methods[3].IsVerified = false

	_, perr := f.handler.Handle(context.Background(), ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.NotNil(t, perr)
	assert.Equal(t, payerrors.KindValidation, perr.Kind)
}

func TestProcessOrderPaymentIdempotentWhenCompleted(t *testing.T) {
	server := mobileMoneyServer(t, "success")
	defer server.Close()
	f := newFixture(t, server.URL)
	order, _ := f.seedOrder(t, 500.0)
	ctx := context.Background()
	cmd := ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	}

	_, perr := f.handler.Handle(ctx, cmd)
	require.Nil(t, perr)

	// Second submit after settlement: no duplicate event, no error.
	result, perr := f.handler.Handle(ctx, cmd)
	require.Nil(t, perr)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Len(t, f.events.completed, 1)
}

func TestProcessOrderPaymentRejectsComplianceViolation(t *testing.T) {
	server := mobileMoneyServer(t, "success")
	defer server.Close()
	f := newFixture(t, server.URL)
	// Over the 5000 LYD mobile money cap but under fraud territory is
	// not possible (amount >5000 scores only 20), so this exercises the
	// compliance path.
	order, payment := f.seedOrder(t, 7000.0)

	_, perr := f.handler.Handle(context.Background(), ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.NotNil(t, perr)
	assert.Equal(t, payerrors.KindComplianceViolation, perr.Kind)

	stored, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestProcessOrderPaymentGatewayFailureRoutedThroughErrorHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"wallet suspended"}`, http.StatusBadGateway)
	}))
	defer server.Close()
	f := newFixture(t, server.URL)
	order, payment := f.seedOrder(t, 500.0)

	_, perr := f.handler.Handle(context.Background(), ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.NotNil(t, perr)
	assert.True(t, perr.Retryable)

	// Retryable failures reset the payment to pending for another try.
	stored, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestCancelOrderWithRefundAfterSettlement(t *testing.T) {
	server := mobileMoneyServer(t, "success")
	defer server.Close()
	f := newFixture(t, server.URL)
	order, payment := f.seedOrder(t, 500.0)
	ctx := context.Background()

	_, perr := f.handler.Handle(ctx, ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.Nil(t, perr)

	refunds := &memRefundRepo{}
	cipher, err := security.NewCipher("test-secret-key", "test-salt")
	require.NoError(t, err)
	encryptedKey, err := cipher.Encrypt("provider-api-key")
	require.NoError(t, err)
	manager, err := gateway.NewManager(&fakeConfigRepo{configs: []domain.GatewayConfig{{
		ID: 1, Provider: domain.ProviderSadad, Type: domain.MethodMobileMoney,
		BaseURL: server.URL, APIKeyEncrypted: encryptedKey, SupportedCurrencies: "LYD", IsActive: true,
	}}}, f.payments, cipher)
	require.NoError(t, err)

	cancel := NewCancelOrderWithRefundHandler(
		f.orders, f.payments, refunds, f.txs, manager, escrow.NewManager(f.escrow), f.events)

	cancelled, refund, err := cancel.Handle(ctx, CancelOrderWithRefundCommand{
		OrderID:     order.ID,
		RequestedBy: 7,
		Reason:      "order_cancelled",
	})
	require.NoError(t, err)

	assert.Equal(t, orderdomain.StatusCancelled, cancelled.Status)
	require.NotNil(t, refund)
	assert.Equal(t, 500.0, refund.Amount)
	assert.Equal(t, "order_cancelled", refund.Reason)

	stored, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, stored.Status)

	account, err := f.escrow.FindByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, escrowdomain.StatusRefunded, account.Status)
	require.Len(t, f.events.cancelled, 1)
	assert.True(t, f.events.cancelled[0].Refunded)
}

type memRefundRepo struct {
	refunds []domain.Refund
}

func (r *memRefundRepo) Create(refund *domain.Refund) error {
	refund.ID = uint(len(r.refunds) + 1)
	r.refunds = append(r.refunds, *refund)
	return nil
}

func (r *memRefundRepo) FindByID(id uint) (*domain.Refund, error) {
	for _, refund := range r.refunds {
		if refund.ID == id {
			copied := refund
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRefundRepo) FindByPaymentID(paymentID uint) ([]domain.Refund, error) {
	var out []domain.Refund
	for _, refund := range r.refunds {
		if refund.PaymentID == paymentID {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *memRefundRepo) HasUnresolved(paymentID uint) (bool, error) {
	for _, refund := range r.refunds {
		if refund.PaymentID == paymentID &&
			(refund.Status == domain.RefundStatusPending || refund.Status == domain.RefundStatusApproved) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRefundRepo) UpdateStatus(id uint, status string) error {
	for i := range r.refunds {
		if r.refunds[i].ID == id {
			r.refunds[i].Status = status
		}
	}
	return nil
}

func TestReconcileBatchFlagsMismatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Provider claims the charge is still in review.
		json.NewEncoder(w).Encode(map[string]any{"status": "in_review"})
	}))
	defer server.Close()
	f := newFixture(t, server.URL)
	_, payment := f.seedOrder(t, 500.0)

	// Force a completed-but-unreconciled payment.
	require.NoError(t, f.payments.MarkCompleted(payment.ID, "MM-9001", time.Now()))

	cipher, err := security.NewCipher("test-secret-key", "test-salt")
	require.NoError(t, err)
	encryptedKey, err := cipher.Encrypt("provider-api-key")
	require.NoError(t, err)
	manager, err := gateway.NewManager(&fakeConfigRepo{configs: []domain.GatewayConfig{{
		ID: 1, Provider: domain.ProviderSadad, Type: domain.MethodMobileMoney,
		BaseURL: server.URL, APIKeyEncrypted: encryptedKey, SupportedCurrencies: "LYD", IsActive: true,
	}}}, f.payments, cipher)
	require.NoError(t, err)

	reconciler := NewReconcilePaymentsHandler(
		f.orders, f.payments, f.txs, manager, escrow.NewManager(f.escrow), f.events)

	reconciled, issues, err := reconciler.HandleBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 0, reconciled)
	require.Len(t, issues, 1)
	assert.Equal(t, payment.ID, issues[0].PaymentID)
	assert.Contains(t, issues[0].Issue, "processing")
}

func TestConfirmBankTransferSettlesPayment(t *testing.T) {
	server := mobileMoneyServer(t, "success")
	defer server.Close()
	f := newFixture(t, server.URL)
	order, payment := f.seedOrder(t, 500.0)

	cipher, err := security.NewCipher("test-secret-key", "test-salt")
	require.NoError(t, err)
	encryptedKey, err := cipher.Encrypt("provider-api-key")
	require.NoError(t, err)
	manager, err := gateway.NewManager(&fakeConfigRepo{configs: []domain.GatewayConfig{{
		ID: 1, Provider: domain.ProviderSadad, Type: domain.MethodMobileMoney,
		BaseURL: server.URL, APIKeyEncrypted: encryptedKey, SupportedCurrencies: "LYD", IsActive: true,
	}}}, f.payments, cipher)
	require.NoError(t, err)

	reconciler := NewReconcilePaymentsHandler(
		f.orders, f.payments, f.txs, manager, escrow.NewManager(f.escrow), f.events)
	ctx := context.Background()

	confirmed, err := reconciler.ConfirmBankTransfer(ctx, payment.ID, true, "statement line 42")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, confirmed.Status)

	updatedOrder, err := f.orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusConfirmed, updatedOrder.Status)
	require.Len(t, f.events.completed, 1)

	// Confirming again does not double-publish.
	_, err = reconciler.ConfirmBankTransfer(ctx, payment.ID, true, "duplicate")
	require.NoError(t, err)
	assert.Len(t, f.events.completed, 1)
}

func TestProcessOrderPaymentPersistsBankTransferReference(t *testing.T) {
	cipher, err := security.NewCipher("test-secret-key", "test-salt")
	require.NoError(t, err)
	encryptedKey, err := cipher.Encrypt("provider-api-key")
	require.NoError(t, err)

	configs := &fakeConfigRepo{configs: []domain.GatewayConfig{{
		ID:                  2,
		Name:                "CBL Transfer",
		Provider:            domain.ProviderCBL,
		Type:                domain.MethodBankTransfer,
		BaseURL:             "https://cbl.example.ly/instructions",
		APIKeyEncrypted:     encryptedKey,
		SupportedCurrencies: "LYD",
		IsActive:            true,
	}}}

	f := &fixture{
		orders:   newFakeOrderRepo(),
		payments: newFakePaymentRepo(),
		methods:  &fakeMethodRepo{methods: map[uint]*domain.PaymentMethod{}},
		txs:      &fakeTxRepo{},
		alerts:   &fakeAlertRepo{},
		events:   &capturedEvents{},
		escrow:   newMemEscrowRepo(),
		history:  &paymentHistory{},
	}
	manager, err := gateway.NewManager(configs, f.payments, cipher)
	require.NoError(t, err)
	f.handler = NewProcessOrderPaymentHandler(
		f.orders, f.payments, f.methods, f.txs, f.alerts,
		manager, cipher,
		security.NewFraudScorer(f.history),
		payerrors.NewBoundary(payerrors.NewMemoryBoundaryStore()),
		payerrors.NewHandler(f.payments, f.txs, &fakeAuditRepo{}, f.events),
		escrow.NewManager(f.escrow),
		f.events,
	)

	token, err := cipher.Tokenize("LY83002001000000001234567")
	require.NoError(t, err)
	order := &orderdomain.Order{
		OrderNumber: "ORD-TEST0002",
		BuyerID:     7,
		SellerID:    9,
		TotalAmount: 750.0,
		Currency:    "LYD",
		Status:      orderdomain.StatusPending,
	}
	require.NoError(t, f.orders.Create(nil, order))
	f.methods.methods[4] = &domain.PaymentMethod{
		ID:            4,
		UserID:        7,
		GatewayID:     2,
		Type:          domain.MethodBankTransfer,
		AccountToken:  token,
		MaskedAccount: "LY83***567",
		IsVerified:    true,
	}
	payment := &domain.Payment{
		OrderID:         order.ID,
		UserID:          7,
		PaymentMethodID: 4,
		GatewayID:       2,
		Amount:          750.0,
		Currency:        "LYD",
		Status:          domain.StatusPending,
	}
	require.NoError(t, f.payments.Create(nil, payment))

	result, perr := f.handler.Handle(context.Background(), ProcessOrderPaymentCommand{
		OrderID:   order.ID,
		IPAddress: "41.208.70.10",
		UserAgent: "Mozilla/5.0 Chrome/120",
		UserCity:  "tripoli",
	})
	require.Nil(t, perr)

	assert.Equal(t, domain.StatusProcessing, result.Status)
	require.NotEmpty(t, result.Reference)
	assert.True(t, strings.HasPrefix(result.Reference, "BT-"))

	// The bank reference must land on the payment row, otherwise the
	// reconciliation lookups by gateway transaction id find nothing.
	stored, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Reference, stored.GatewayTxID)

	found, err := f.payments.FindByGatewayTxID(result.Reference)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)

	adapter, err := manager.Gateway(2)
	require.NoError(t, err)
	status, err := adapter.CheckStatus(context.Background(), stored.GatewayTxID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, status.Status)
}
