package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/installment/domain"
)

type GormInstallmentRepository struct {
	db *gorm.DB
}

func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

func (r *GormInstallmentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Plan{}, &domain.Payment{})
}

func (r *GormInstallmentRepository) CreatePlan(plan *domain.Plan) error {
	return r.db.Create(plan).Error
}

func (r *GormInstallmentRepository) FindPlanByID(id uint) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.Preload("Payments").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *GormInstallmentRepository) FindPlanByOrderID(orderID uint) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.Preload("Payments").Where("order_id = ?", orderID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *GormInstallmentRepository) UpdatePlanStatus(id uint, status string) error {
	return r.db.Model(&domain.Plan{}).Where("id = ?", id).Update("status", status).Error
}

// MarkPaidIf guards the update on the current status so a double
// delivery of the same payment confirmation cannot pay an installment
// twice.
func (r *GormInstallmentRepository) MarkPaidIf(paymentID uint, expected string) (bool, error) {
	now := time.Now()
	result := r.db.Model(&domain.Payment{}).
		Where("id = ? AND status = ?", paymentID, expected).
		Updates(map[string]interface{}{"status": domain.InstallmentPaid, "paid_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormInstallmentRepository) MarkOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&domain.Payment{}).
		Where("status = ? AND due_date < ?", domain.InstallmentPending, now).
		Update("status", domain.InstallmentOverdue)
	return result.RowsAffected, result.Error
}

func (r *GormInstallmentRepository) CountUnpaid(planID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Payment{}).
		Where("plan_id = ? AND status != ?", planID, domain.InstallmentPaid).
		Count(&count).Error
	return count, err
}

func (r *GormInstallmentRepository) FindDueBetween(from, to time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.Where("status IN ? AND due_date >= ? AND due_date < ?",
		[]string{domain.InstallmentPending, domain.InstallmentOverdue}, from, to).
		Order("due_date").
		Find(&payments).Error
	return payments, err
}
