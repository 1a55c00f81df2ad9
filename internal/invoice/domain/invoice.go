package domain

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses.
const (
	StatusIssued = "issued"
	StatusPaid   = "paid"
	StatusVoided = "voided"
)

// Invoice is the billing document issued once a payment completes.
// Immutable after issue except for status.
type Invoice struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	InvoiceNumber string         `json:"invoice_number" gorm:"uniqueIndex;not null"`
	OrderID       uint           `json:"order_id" gorm:"not null;uniqueIndex"`
	PaymentID     uint           `json:"payment_id" gorm:"not null;index"`
	UserID        uint           `json:"user_id" gorm:"not null;index"`
	Subtotal      float64        `json:"subtotal" gorm:"not null"`
	TaxAmount     float64        `json:"tax_amount" gorm:"not null;default:0"`
	Total         float64        `json:"total" gorm:"not null"`
	Currency      string         `json:"currency" gorm:"default:'LYD'"`
	Status        string         `json:"status" gorm:"default:'issued';index"`
	IssuedAt      time.Time      `json:"issued_at"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	Create(invoice *Invoice) error
	FindByID(id uint) (*Invoice, error)
	FindByOrderID(orderID uint) (*Invoice, error)
	FindByUserID(userID uint, limit, offset int) ([]Invoice, error)
	UpdateStatus(id uint, status string) error
}
