package domain

import (
	"time"

	"gorm.io/gorm"
)

// Escrow account statuses.
const (
	StatusHolding  = "holding"
	StatusPartial  = "partial_release"
	StatusReleased = "released"
	StatusRefunded = "refunded"
)

// Ledger entry types.
const (
	EntryHold    = "hold"
	EntryRelease = "release"
	EntryRefund  = "refund"
)

// Account holds a buyer's funds for one order until the seller
// delivers. The invariant held + released == total must hold after
// every operation; accounts untouched past the holding period are
// released automatically.
type Account struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	OrderID        uint           `json:"order_id" gorm:"not null;uniqueIndex"`
	PaymentID      uint           `json:"payment_id" gorm:"not null;index"`
	TotalAmount    float64        `json:"total_amount" gorm:"not null"`
	HeldAmount     float64        `json:"held_amount" gorm:"not null"`
	ReleasedAmount float64        `json:"released_amount" gorm:"not null;default:0"`
	Currency       string         `json:"currency" gorm:"default:'LYD'"`
	Status         string         `json:"status" gorm:"default:'holding';index"`
	HoldUntil      time.Time      `json:"hold_until"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Account) TableName() string {
	return "escrow_accounts"
}

// LedgerEntry records one escrow movement, append-only.
type LedgerEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AccountID uint      `json:"account_id" gorm:"not null;index"`
	OrderID   uint      `json:"order_id" gorm:"not null;index"`
	Type      string    `json:"type" gorm:"not null"`
	Amount    float64   `json:"amount" gorm:"not null"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (LedgerEntry) TableName() string {
	return "escrow_ledger_entries"
}

// EscrowRepository defines the contract for escrow persistence. Mutating
// operations lock the account row so concurrent releases cannot lose
// updates.
type EscrowRepository interface {
	Create(account *Account, entry *LedgerEntry) error
	FindByOrderID(orderID uint) (*Account, error)
	FindExpired(now time.Time, limit int) ([]Account, error)
	// UpdateLocked loads the account under a row lock, applies fn, and
	// saves the result together with a ledger entry in one transaction.
	// fn returning an error rolls everything back.
	UpdateLocked(accountID uint, fn func(*Account) (*LedgerEntry, error)) error
}
