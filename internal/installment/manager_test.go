package installment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsouq/marketplace/internal/installment/domain"
	"github.com/medsouq/marketplace/kafka"
)

type memInstallmentRepo struct {
	nextPlanID    uint
	nextPaymentID uint
	plans         map[uint]*domain.Plan
}

func newMemInstallmentRepo() *memInstallmentRepo {
	return &memInstallmentRepo{nextPlanID: 1, nextPaymentID: 1, plans: map[uint]*domain.Plan{}}
}

func (r *memInstallmentRepo) CreatePlan(plan *domain.Plan) error {
	plan.ID = r.nextPlanID
	r.nextPlanID++
	for i := range plan.Payments {
		plan.Payments[i].ID = r.nextPaymentID
		plan.Payments[i].PlanID = plan.ID
		r.nextPaymentID++
	}
	copied := *plan
	copied.Payments = append([]domain.Payment(nil), plan.Payments...)
	r.plans[plan.ID] = &copied
	return nil
}

func (r *memInstallmentRepo) FindPlanByID(id uint) (*domain.Plan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan not found")
	}
	copied := *plan
	copied.Payments = append([]domain.Payment(nil), plan.Payments...)
	return &copied, nil
}

func (r *memInstallmentRepo) FindPlanByOrderID(orderID uint) (*domain.Plan, error) {
	for id, plan := range r.plans {
		if plan.OrderID == orderID {
			return r.FindPlanByID(id)
		}
	}
	return nil, fmt.Errorf("plan not found")
}

func (r *memInstallmentRepo) UpdatePlanStatus(id uint, status string) error {
	plan, ok := r.plans[id]
	if !ok {
		return fmt.Errorf("plan not found")
	}
	plan.Status = status
	return nil
}

func (r *memInstallmentRepo) MarkPaidIf(paymentID uint, expected string) (bool, error) {
	for _, plan := range r.plans {
		for i := range plan.Payments {
			if plan.Payments[i].ID == paymentID {
				if plan.Payments[i].Status != expected {
					return false, nil
				}
				now := time.Now()
				plan.Payments[i].Status = domain.InstallmentPaid
				plan.Payments[i].PaidAt = &now
				return true, nil
			}
		}
	}
	return false, fmt.Errorf("installment not found")
}

func (r *memInstallmentRepo) MarkOverdue(now time.Time) (int64, error) {
	var flipped int64
	for _, plan := range r.plans {
		for i := range plan.Payments {
			if plan.Payments[i].Status == domain.InstallmentPending && plan.Payments[i].DueDate.Before(now) {
				plan.Payments[i].Status = domain.InstallmentOverdue
				flipped++
			}
		}
	}
	return flipped, nil
}

func (r *memInstallmentRepo) CountUnpaid(planID uint) (int64, error) {
	plan, ok := r.plans[planID]
	if !ok {
		return 0, fmt.Errorf("plan not found")
	}
	var count int64
	for _, payment := range plan.Payments {
		if payment.Status != domain.InstallmentPaid {
			count++
		}
	}
	return count, nil
}

func (r *memInstallmentRepo) FindDueBetween(from, to time.Time) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, plan := range r.plans {
		for _, payment := range plan.Payments {
			if payment.Status == domain.InstallmentPaid {
				continue
			}
			if !payment.DueDate.Before(from) && payment.DueDate.Before(to) {
				out = append(out, payment)
			}
		}
	}
	return out, nil
}

type capturedReminders struct {
	events []kafka.InstallmentReminderEvent
}

func (c *capturedReminders) PublishInstallmentReminder(_ context.Context, event kafka.InstallmentReminderEvent) error {
	c.events = append(c.events, event)
	return nil
}

func TestCreatePlanSchedulesAllInstallments(t *testing.T) {
	repo := newMemInstallmentRepo()
	mgr := NewManager(repo, &capturedReminders{})

	plan, err := mgr.CreatePlan(context.Background(), 10, 5, 1000.0, "LYD", 3, domain.FrequencyMonthly)
	require.NoError(t, err)

	require.Len(t, plan.Payments, 3)
	assert.Equal(t, domain.PlanActive, plan.Status)

	var sum float64
	for _, payment := range plan.Payments {
		assert.Equal(t, domain.InstallmentPending, payment.Status)
		sum += payment.Amount
	}
	assert.InDelta(t, 1000.0, sum, 0.001)
	// 1000/3 leaves a remainder that lands on the last installment.
	assert.Equal(t, 333.33, plan.Payments[0].Amount)
	assert.Equal(t, 333.34, plan.Payments[2].Amount)
}

func TestCreatePlanValidation(t *testing.T) {
	mgr := NewManager(newMemInstallmentRepo(), &capturedReminders{})
	ctx := context.Background()

	_, err := mgr.CreatePlan(ctx, 10, 5, 1000.0, "LYD", 1, domain.FrequencyMonthly)
	assert.Error(t, err)

	_, err = mgr.CreatePlan(ctx, 10, 5, -50.0, "LYD", 3, domain.FrequencyMonthly)
	assert.Error(t, err)

	_, err = mgr.CreatePlan(ctx, 10, 5, 1000.0, "LYD", 3, "daily")
	assert.Error(t, err)
}

func TestPayingAllInstallmentsCompletesPlan(t *testing.T) {
	repo := newMemInstallmentRepo()
	mgr := NewManager(repo, &capturedReminders{})
	ctx := context.Background()

	plan, err := mgr.CreatePlan(ctx, 10, 5, 900.0, "LYD", 3, domain.FrequencyWeekly)
	require.NoError(t, err)

	for i, payment := range plan.Payments {
		updated, err := mgr.RecordPayment(ctx, plan.ID, payment.ID)
		require.NoError(t, err)
		if i < len(plan.Payments)-1 {
			assert.Equal(t, domain.PlanActive, updated.Status)
		} else {
			assert.Equal(t, domain.PlanCompleted, updated.Status)
		}
	}
}

func TestPayingSameInstallmentTwiceIsNoOp(t *testing.T) {
	repo := newMemInstallmentRepo()
	mgr := NewManager(repo, &capturedReminders{})
	ctx := context.Background()

	plan, err := mgr.CreatePlan(ctx, 10, 5, 600.0, "LYD", 2, domain.FrequencyMonthly)
	require.NoError(t, err)

	_, err = mgr.RecordPayment(ctx, plan.ID, plan.Payments[0].ID)
	require.NoError(t, err)
	updated, err := mgr.RecordPayment(ctx, plan.ID, plan.Payments[0].ID)
	require.NoError(t, err)

	assert.Equal(t, domain.PlanActive, updated.Status)
	unpaid, err := repo.CountUnpaid(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unpaid)
}

func TestMarkOverdueAndRemind(t *testing.T) {
	repo := newMemInstallmentRepo()
	reminders := &capturedReminders{}
	mgr := NewManager(repo, reminders)
	ctx := context.Background()

	plan, err := mgr.CreatePlan(ctx, 10, 5, 400.0, "LYD", 2, domain.FrequencyWeekly)
	require.NoError(t, err)

	// Force the first installment past due.
	repo.plans[plan.ID].Payments[0].DueDate = time.Now().Add(-48 * time.Hour)

	flipped, err := mgr.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	sent, err := mgr.SendReminders(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, reminders.events, 1)
	assert.True(t, reminders.events[0].Overdue)
	assert.Equal(t, plan.UserID, reminders.events[0].UserID)
}
