package kafka

import "time"

// EventMeta carries the envelope fields shared by every marketplace event.
type EventMeta struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentCompletedEvent is emitted once a gateway confirms a charge.
// Invoice generation and downstream analytics hang off this event.
type PaymentCompletedEvent struct {
	EventMeta
	PaymentID   uint    `json:"payment_id"`
	OrderID     uint    `json:"order_id"`
	UserID      uint    `json:"user_id"`
	GatewayID   uint    `json:"gateway_id"`
	Provider    string  `json:"provider"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	GatewayTxID string  `json:"gateway_tx_id"`
}

// PaymentAlertEvent carries critical error and fraud notifications to
// the operations channel.
type PaymentAlertEvent struct {
	EventMeta
	Kind      string         `json:"kind"`
	PaymentID uint           `json:"payment_id,omitempty"`
	UserID    uint           `json:"user_id,omitempty"`
	Severity  string         `json:"severity,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// OrderCancelledEvent is emitted when an order is cancelled, with or
// without an associated refund.
type OrderCancelledEvent struct {
	EventMeta
	OrderID   uint   `json:"order_id"`
	PaymentID uint   `json:"payment_id,omitempty"`
	Reason    string `json:"reason"`
	Refunded  bool   `json:"refunded"`
}

// InstallmentReminderEvent asks the notification channel to remind a
// buyer about an upcoming or overdue installment.
type InstallmentReminderEvent struct {
	EventMeta
	PlanID        uint      `json:"plan_id"`
	InstallmentID uint      `json:"installment_id"`
	UserID        uint      `json:"user_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DueDate       time.Time `json:"due_date"`
	Overdue       bool      `json:"overdue"`
}

// Event types
const (
	EventTypePaymentCompleted    = "payment.completed"
	EventTypePaymentAlert        = "payment.alert"
	EventTypeOrderCancelled      = "order.cancelled"
	EventTypeInstallmentReminder = "installment.reminder"
)

// Kafka topics
const (
	TopicPayments  = "marketplace-payments"
	TopicAlerts    = "marketplace-alerts"
	TopicReminders = "marketplace-reminders"
)
