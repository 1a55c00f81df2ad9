package payment

import (
	"context"
	"time"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

// paymentHistory adapts the payment repository to the fraud scorer's
// view of recent user behaviour.
type paymentHistory struct {
	payments domain.PaymentRepository
}

func (h paymentHistory) CountRecentPayments(_ context.Context, userID uint, since time.Time) (int, error) {
	return h.payments.CountByUserSince(userID, since)
}

func (h paymentHistory) RecentUserAgents(_ context.Context, userID uint, limit int) ([]string, error) {
	return h.payments.RecentUserAgents(userID, limit)
}
