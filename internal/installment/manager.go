// Package installment schedules split payments for an order and
// tracks each scheduled payment through to completion.
package installment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/medsouq/marketplace/internal/installment/domain"
	"github.com/medsouq/marketplace/kafka"
	"github.com/medsouq/marketplace/pkg/logger"
)

// ReminderPublisher delivers due-date reminders to the notification
// channel.
type ReminderPublisher interface {
	PublishInstallmentReminder(ctx context.Context, event kafka.InstallmentReminderEvent) error
}

// Manager layers plan lifecycle rules over the repository.
type Manager struct {
	repo      domain.InstallmentRepository
	publisher ReminderPublisher
}

func NewManager(repo domain.InstallmentRepository, publisher ReminderPublisher) *Manager {
	return &Manager{repo: repo, publisher: publisher}
}

// CreatePlan splits total into count scheduled payments at the given
// frequency. Amounts are rounded to two decimals with the remainder
// folded into the last installment, so the schedule always sums to the
// total.
func (m *Manager) CreatePlan(ctx context.Context, orderID, userID uint, total float64, currencyCode string, count int, frequency string) (*domain.Plan, error) {
	if count < 2 {
		return nil, fmt.Errorf("installment plan needs at least 2 payments, got %d", count)
	}
	if total <= 0 {
		return nil, fmt.Errorf("installment plan total must be positive")
	}
	switch frequency {
	case domain.FrequencyWeekly, domain.FrequencyMonthly, domain.FrequencyQuarterly:
	default:
		return nil, fmt.Errorf("unsupported installment frequency: %s", frequency)
	}

	per := math.Floor(total/float64(count)*100) / 100
	interval := domain.Interval(frequency)
	payments := make([]domain.Payment, count)
	for i := 0; i < count; i++ {
		amount := per
		if i == count-1 {
			amount = math.Round((total-per*float64(count-1))*100) / 100
		}
		payments[i] = domain.Payment{
			Sequence: i + 1,
			Amount:   amount,
			DueDate:  time.Now().Add(time.Duration(i+1) * interval),
			Status:   domain.InstallmentPending,
		}
	}

	plan := &domain.Plan{
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: total,
		Currency:    currencyCode,
		Count:       count,
		Frequency:   frequency,
		Status:      domain.PlanActive,
		Payments:    payments,
	}
	if err := m.repo.CreatePlan(plan); err != nil {
		return nil, fmt.Errorf("failed to create installment plan: %w", err)
	}

	logger.Info(ctx).
		Uint("order_id", orderID).
		Int("count", count).
		Str("frequency", frequency).
		Msg("Installment plan created")
	return plan, nil
}

// RecordPayment marks one installment as paid and completes the plan
// when no unpaid installments remain. Paying an already-paid
// installment is a no-op.
func (m *Manager) RecordPayment(ctx context.Context, planID, paymentID uint) (*domain.Plan, error) {
	plan, err := m.repo.FindPlanByID(planID)
	if err != nil {
		return nil, fmt.Errorf("installment plan %d not found: %w", planID, err)
	}
	if plan.Status != domain.PlanActive {
		return nil, fmt.Errorf("installment plan %d is %s, not active", planID, plan.Status)
	}

	var target *domain.Payment
	for i := range plan.Payments {
		if plan.Payments[i].ID == paymentID {
			target = &plan.Payments[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("installment %d does not belong to plan %d", paymentID, planID)
	}
	if target.Status == domain.InstallmentPaid {
		return plan, nil
	}

	paid, err := m.repo.MarkPaidIf(paymentID, target.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to mark installment paid: %w", err)
	}
	if !paid {
		// Lost the guard to a concurrent confirmation, which is fine.
		return m.repo.FindPlanByID(planID)
	}

	unpaid, err := m.repo.CountUnpaid(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unpaid installments: %w", err)
	}
	if unpaid == 0 {
		if err := m.repo.UpdatePlanStatus(planID, domain.PlanCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete installment plan: %w", err)
		}
		logger.Info(ctx).Uint("plan_id", planID).Msg("Installment plan completed")
	}

	return m.repo.FindPlanByID(planID)
}

// MarkOverdue flips past-due pending installments to overdue. Invoked
// by the scheduler.
func (m *Manager) MarkOverdue(ctx context.Context) (int64, error) {
	flipped, err := m.repo.MarkOverdue(time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue installments: %w", err)
	}
	if flipped > 0 {
		logger.Info(ctx).Int64("count", flipped).Msg("Installments marked overdue")
	}
	return flipped, nil
}

// SendReminders publishes a reminder for every installment due within
// the window, plus anything already overdue. Partial completion is
// acceptable; failed publishes are logged and skipped.
func (m *Manager) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	now := time.Now()
	due, err := m.repo.FindDueBetween(now.Add(-window), now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("failed to list due installments: %w", err)
	}

	sent := 0
	for _, payment := range due {
		plan, err := m.repo.FindPlanByID(payment.PlanID)
		if err != nil {
			logger.Error(ctx).Err(err).Uint("plan_id", payment.PlanID).Msg("Failed to load plan for reminder")
			continue
		}
		event := kafka.InstallmentReminderEvent{
			PlanID:        plan.ID,
			InstallmentID: payment.ID,
			UserID:        plan.UserID,
			Amount:        payment.Amount,
			Currency:      plan.Currency,
			DueDate:       payment.DueDate,
			Overdue:       payment.Status == domain.InstallmentOverdue,
		}
		if err := m.publisher.PublishInstallmentReminder(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Uint("installment_id", payment.ID).Msg("Failed to publish installment reminder")
			continue
		}
		sent++
	}
	return sent, nil
}
