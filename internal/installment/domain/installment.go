package domain

import (
	"time"

	"gorm.io/gorm"
)

// Plan statuses.
const (
	PlanActive    = "active"
	PlanCompleted = "completed"
	PlanCancelled = "cancelled"
)

// Installment statuses.
const (
	InstallmentPending = "pending"
	InstallmentPaid    = "paid"
	InstallmentOverdue = "overdue"
	InstallmentMissed  = "missed"
)

// Payment frequencies.
const (
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
)

// Plan divides an order total into N scheduled payments. The plan
// completes when every installment is paid.
type Plan struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OrderID     uint           `json:"order_id" gorm:"not null;uniqueIndex"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	TotalAmount float64        `json:"total_amount" gorm:"not null"`
	Currency    string         `json:"currency" gorm:"default:'LYD'"`
	Count       int            `json:"count" gorm:"not null"`
	Frequency   string         `json:"frequency" gorm:"not null"`
	Status      string         `json:"status" gorm:"default:'active';index"`
	Payments    []Payment      `json:"payments,omitempty" gorm:"foreignKey:PlanID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Plan) TableName() string {
	return "installment_plans"
}

// Payment is one scheduled installment within a plan.
type Payment struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	PlanID   uint       `json:"plan_id" gorm:"not null;index"`
	Sequence int        `json:"sequence" gorm:"not null"`
	Amount   float64    `json:"amount" gorm:"not null"`
	DueDate  time.Time  `json:"due_date" gorm:"index"`
	Status   string     `json:"status" gorm:"default:'pending';index"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "installment_payments"
}

// Interval returns the gap between consecutive due dates for a
// frequency, defaulting to monthly for unknown values.
func Interval(frequency string) time.Duration {
	switch frequency {
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyQuarterly:
		return 90 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// InstallmentRepository persists plans and their scheduled payments.
type InstallmentRepository interface {
	CreatePlan(plan *Plan) error
	FindPlanByID(id uint) (*Plan, error)
	FindPlanByOrderID(orderID uint) (*Plan, error)
	UpdatePlanStatus(id uint, status string) error
	// MarkPaidIf flips an installment from expected status to paid and
	// reports whether the guarded update took effect.
	MarkPaidIf(paymentID uint, expected string) (bool, error)
	MarkOverdue(now time.Time) (int64, error)
	CountUnpaid(planID uint) (int64, error)
	FindDueBetween(from, to time.Time) ([]Payment, error)
}
