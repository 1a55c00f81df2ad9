package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Order statuses. Transitions move forward only, except cancellation
// which is allowed from any non-terminal state.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order represents a buyer's purchase of services from a seller company
type Order struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OrderNumber string         `json:"order_number" gorm:"not null;uniqueIndex"`
	BuyerID     uint           `json:"buyer_id" gorm:"not null;index"`
	SellerID    uint           `json:"seller_id" gorm:"not null;index"`
	TotalAmount float64        `json:"total_amount" gorm:"not null"`
	Currency    string         `json:"currency" gorm:"default:'LYD'"`
	Status      string         `json:"status" gorm:"default:'pending';index"`
	Items       []OrderItem    `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line on the order. Immutable once the order is placed.
type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"not null;index"`
	ListingID uint      `json:"listing_id" gorm:"not null"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	UnitPrice float64   `json:"unit_price" gorm:"not null"`
	Total     float64   `json:"total" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (OrderItem) TableName() string {
	return "order_items"
}

// rank orders the forward-only lifecycle.
var statusRank = map[string]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusShipped:   2,
	StatusDelivered: 3,
}

// IsTerminal reports whether no further transitions are allowed.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// CanTransitionTo validates an order status transition. Forward moves
// through pending → confirmed → shipped → delivered are allowed one
// step at a time; cancellation is allowed from any non-terminal state.
func (o *Order) CanTransitionTo(target string) error {
	if o.IsTerminal() {
		return fmt.Errorf("order %d is %s and cannot transition to %s", o.ID, o.Status, target)
	}
	if target == StatusCancelled {
		return nil
	}
	from, okFrom := statusRank[o.Status]
	to, okTo := statusRank[target]
	if !okFrom || !okTo || to != from+1 {
		return fmt.Errorf("invalid order transition %s -> %s", o.Status, target)
	}
	return nil
}

// OrderRepository defines the contract for order data access
type OrderRepository interface {
	Create(tx *gorm.DB, order *Order) error
	FindByID(id uint) (*Order, error)
	FindByBuyerID(buyerID uint, limit, offset int) ([]Order, error)
	UpdateStatus(id uint, status string) error
	// UpdateStatusIf performs a status-guarded update and reports
	// whether a row was changed, used to keep retries idempotent.
	UpdateStatusIf(id uint, expected, status string) (bool, error)
}
