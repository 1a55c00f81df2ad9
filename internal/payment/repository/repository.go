package repository

import (
	"time"

	"github.com/medsouq/marketplace/internal/payment/domain"
	"gorm.io/gorm"
)

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&domain.Payment{},
		&domain.PaymentMethod{},
		&domain.PaymentTransaction{},
		&domain.Refund{},
		&domain.FraudAlert{},
		&domain.GatewayConfig{},
	)
}

// Create inserts the payment inside the caller's transaction when one
// is supplied, so order and payment creation commit together.
func (r *GormPaymentRepository) Create(tx *gorm.DB, payment *domain.Payment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(payment).Error
}

func (r *GormPaymentRepository) FindByID(id uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) FindByOrderID(orderID uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.Where("order_id = ?", orderID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) FindByGatewayTxID(gatewayTxID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.Where("gateway_tx_id = ?", gatewayTxID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) FindByUserID(userID uint, limit, offset int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.Where("user_id = ?", userID).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) FindAll(limit, offset int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) FindCompletedUnreconciled(limit int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.Where("status = ? AND reconciled_at IS NULL", domain.StatusCompleted).
		Limit(limit).
		Order("processed_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) Update(payment *domain.Payment) error {
	return r.db.Save(payment).Error
}

func (r *GormPaymentRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&domain.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *GormPaymentRepository) UpdateStatusIf(id uint, expected, status string) (bool, error) {
	result := r.db.Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", status)
	return result.RowsAffected > 0, result.Error
}

func (r *GormPaymentRepository) MarkCompleted(id uint, gatewayTxID string, processedAt time.Time) error {
	return r.db.Model(&domain.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        domain.StatusCompleted,
			"gateway_tx_id": gatewayTxID,
			"processed_at":  processedAt,
		}).Error
}

func (r *GormPaymentRepository) MarkReconciled(id uint, at time.Time) error {
	return r.db.Model(&domain.Payment{}).
		Where("id = ?", id).
		Update("reconciled_at", at).Error
}

func (r *GormPaymentRepository) CountByUserSince(userID uint, since time.Time) (int, error) {
	var count int64
	err := r.db.Model(&domain.Payment{}).
		Where("user_id = ? AND created_at > ?", userID, since).
		Count(&count).Error
	return int(count), err
}

func (r *GormPaymentRepository) RecentUserAgents(userID uint, limit int) ([]string, error) {
	var agents []string
	err := r.db.Model(&domain.Payment{}).
		Where("user_id = ? AND user_agent <> ''", userID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("user_agent", &agents).Error
	return agents, err
}
