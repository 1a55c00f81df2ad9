package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Normalized payment statuses. Every gateway adapter maps its provider
// vocabulary onto this set; Payment.Status is the single source of
// truth for whether funds have moved.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
	StatusCancelled  = "cancelled"
)

// Payment method families, one per gateway adapter.
const (
	MethodMobileMoney  = "mobile_money"
	MethodBankTransfer = "bank_transfer"
	MethodCard         = "card"
)

// Payment is the single payment record an order owns. Retries and
// partial captures append PaymentTransaction rows rather than mutating
// history here.
type Payment struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	OrderID         uint           `json:"order_id" gorm:"not null;uniqueIndex"`
	UserID          uint           `json:"user_id" gorm:"not null;index"`
	PaymentMethodID uint           `json:"payment_method_id" gorm:"not null"`
	GatewayID       uint           `json:"gateway_id" gorm:"not null;index"`
	Amount          float64        `json:"amount" gorm:"not null"`
	Currency        string         `json:"currency" gorm:"default:'LYD'"`
	Status          string         `json:"status" gorm:"default:'pending';index"`
	GatewayTxID     string         `json:"gateway_tx_id" gorm:"index"`
	Metadata        string         `json:"-" gorm:"type:text"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	ReconciledAt    *time.Time     `json:"reconciled_at,omitempty"`
	UserAgent       string         `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether the payment reached a final state.
// Completed is not terminal: it can still move to refunded.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusFailed || p.Status == StatusRefunded || p.Status == StatusCancelled
}

// CanTransitionTo validates a payment status transition.
//
//	pending    → processing, completed, failed, cancelled
//	processing → completed, failed, cancelled, pending (retry reset)
//	completed  → refunded
func (p *Payment) CanTransitionTo(target string) error {
	allowed := map[string][]string{
		StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
		StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled, StatusPending},
		StatusCompleted:  {StatusRefunded},
	}
	for _, s := range allowed[p.Status] {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("invalid payment transition %s -> %s", p.Status, target)
}

// MetadataMap decodes the metadata bag. An empty bag decodes to an
// empty map.
func (p *Payment) MetadataMap() map[string]any {
	m := map[string]any{}
	if p.Metadata != "" {
		_ = json.Unmarshal([]byte(p.Metadata), &m)
	}
	return m
}

// SetMetadata re-encodes the metadata bag.
func (p *Payment) SetMetadata(m map[string]any) {
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	p.Metadata = string(raw)
}

// RetryCount reads the retry counter from the metadata bag.
func (p *Payment) RetryCount() int {
	if v, ok := p.MetadataMap()["retry_count"]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return 0
}

// IncrementRetryCount bumps the retry counter in the metadata bag.
func (p *Payment) IncrementRetryCount() {
	m := p.MetadataMap()
	m["retry_count"] = p.RetryCount() + 1
	p.SetMetadata(m)
}

// PaymentMethod is a user-owned, gateway-scoped way to pay. Account
// data is stored tokenized with a display mask; IsVerified gates use
// for completed transactions.
type PaymentMethod struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"not null;index"`
	GatewayID     uint           `json:"gateway_id" gorm:"not null"`
	Type          string         `json:"type" gorm:"not null"` // mobile_money, bank_transfer, card
	AccountToken  string         `json:"-" gorm:"type:text"`
	MaskedAccount string         `json:"masked_account"`
	HolderName    string         `json:"holder_name"`
	IsVerified    bool           `json:"is_verified" gorm:"default:false"`
	IsDefault     bool           `json:"is_default" gorm:"default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// Transaction operations recorded in the ledger.
const (
	TxTypeCharge  = "charge"
	TxTypeRefund  = "refund"
	TxTypeVoid    = "void"
	TxTypeCapture = "capture"
)

// PaymentTransaction is an append-only ledger entry for one gateway
// interaction.
type PaymentTransaction struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	PaymentID     uint      `json:"payment_id" gorm:"not null;index"`
	Type          string    `json:"type" gorm:"not null"`
	Status        string    `json:"status" gorm:"not null"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	GatewayTxID   string    `json:"gateway_tx_id"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// Refund statuses.
const (
	RefundStatusPending   = "pending"
	RefundStatusApproved  = "approved"
	RefundStatusCompleted = "completed"
	RefundStatusRejected  = "rejected"
)

// Refund tracks money moving back to the buyer. At most one unresolved
// refund may exist per payment.
type Refund struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RefundNumber string     `json:"refund_number" gorm:"uniqueIndex"`
	PaymentID    uint       `json:"payment_id" gorm:"not null;index"`
	OrderID      uint       `json:"order_id" gorm:"not null;index"`
	Amount       float64    `json:"amount" gorm:"not null"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status" gorm:"default:'pending'"`
	Reason       string     `json:"reason"`
	RequestedBy  uint       `json:"requested_by"`
	ApprovedBy   *uint      `json:"approved_by,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (Refund) TableName() string {
	return "refunds"
}

// Fraud alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// FraudAlert is produced by risk scoring, independent of the payment
// lifecycle.
type FraudAlert struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	PaymentID  uint       `json:"payment_id" gorm:"index"`
	UserID     uint       `json:"user_id" gorm:"index"`
	Score      int        `json:"score"`
	Severity   string     `json:"severity"`
	Reasons    string     `json:"reasons" gorm:"type:text"`
	Resolved   bool       `json:"resolved" gorm:"default:false"`
	ResolvedBy *uint      `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name
func (FraudAlert) TableName() string {
	return "fraud_alerts"
}

// PaymentRepository defines the contract for payment data access
type PaymentRepository interface {
	Create(tx *gorm.DB, payment *Payment) error
	FindByID(id uint) (*Payment, error)
	FindByOrderID(orderID uint) (*Payment, error)
	FindByGatewayTxID(gatewayTxID string) (*Payment, error)
	FindByUserID(userID uint, limit, offset int) ([]Payment, error)
	FindAll(limit, offset int) ([]Payment, error)
	FindCompletedUnreconciled(limit int) ([]Payment, error)
	Update(payment *Payment) error
	UpdateStatus(id uint, status string) error
	// UpdateStatusIf performs the optimistic, status-guarded update used
	// to make retries and duplicate webhook deliveries idempotent.
	UpdateStatusIf(id uint, expected, status string) (bool, error)
	MarkCompleted(id uint, gatewayTxID string, processedAt time.Time) error
	MarkReconciled(id uint, at time.Time) error
	CountByUserSince(userID uint, since time.Time) (int, error)
	RecentUserAgents(userID uint, limit int) ([]string, error)
}

// PaymentMethodRepository defines the contract for payment method data access
type PaymentMethodRepository interface {
	Create(method *PaymentMethod) error
	FindByID(id uint) (*PaymentMethod, error)
	FindByUserID(userID uint) ([]PaymentMethod, error)
	MarkVerified(id uint) error
}

// TransactionRepository defines the contract for the transaction ledger
type TransactionRepository interface {
	Create(tx *PaymentTransaction) error
	FindByPaymentID(paymentID uint) ([]PaymentTransaction, error)
}

// RefundRepository defines the contract for refund data access
type RefundRepository interface {
	Create(refund *Refund) error
	FindByID(id uint) (*Refund, error)
	FindByPaymentID(paymentID uint) ([]Refund, error)
	HasUnresolved(paymentID uint) (bool, error)
	UpdateStatus(id uint, status string) error
}

// FraudAlertRepository defines the contract for fraud alert data access
type FraudAlertRepository interface {
	Create(alert *FraudAlert) error
	FindUnresolved(limit, offset int) ([]FraudAlert, error)
	Resolve(id uint, resolvedBy uint) error
}
