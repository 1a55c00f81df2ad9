package repository

import (
	"time"

	"github.com/medsouq/marketplace/internal/payment/domain"
	"gorm.io/gorm"
)

type GormPaymentMethodRepository struct {
	db *gorm.DB
}

func NewGormPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

func (r *GormPaymentMethodRepository) Create(method *domain.PaymentMethod) error {
	return r.db.Create(method).Error
}

func (r *GormPaymentMethodRepository) FindByID(id uint) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	err := r.db.First(&method, id).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *GormPaymentMethodRepository) FindByUserID(userID uint) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&methods).Error
	return methods, err
}

func (r *GormPaymentMethodRepository) MarkVerified(id uint) error {
	return r.db.Model(&domain.PaymentMethod{}).
		Where("id = ?", id).
		Update("is_verified", true).Error
}

type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(tx *domain.PaymentTransaction) error {
	return r.db.Create(tx).Error
}

func (r *GormTransactionRepository) FindByPaymentID(paymentID uint) ([]domain.PaymentTransaction, error) {
	var txs []domain.PaymentTransaction
	err := r.db.Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}

type GormRefundRepository struct {
	db *gorm.DB
}

func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

func (r *GormRefundRepository) Create(refund *domain.Refund) error {
	return r.db.Create(refund).Error
}

func (r *GormRefundRepository) FindByID(id uint) (*domain.Refund, error) {
	var refund domain.Refund
	err := r.db.First(&refund, id).Error
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *GormRefundRepository) FindByPaymentID(paymentID uint) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := r.db.Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		Find(&refunds).Error
	return refunds, err
}

// HasUnresolved reports whether the payment already has a refund that
// is not yet completed or rejected. The platform permits at most one
// outstanding refund per payment.
func (r *GormRefundRepository) HasUnresolved(paymentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Refund{}).
		Where("payment_id = ? AND status IN ?", paymentID,
			[]string{domain.RefundStatusPending, domain.RefundStatusApproved}).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRefundRepository) UpdateStatus(id uint, status string) error {
	updates := map[string]any{"status": status}
	if status == domain.RefundStatusCompleted {
		updates["processed_at"] = time.Now()
	}
	return r.db.Model(&domain.Refund{}).
		Where("id = ?", id).
		Updates(updates).Error
}

type GormFraudAlertRepository struct {
	db *gorm.DB
}

func NewGormFraudAlertRepository(db *gorm.DB) *GormFraudAlertRepository {
	return &GormFraudAlertRepository{db: db}
}

func (r *GormFraudAlertRepository) Create(alert *domain.FraudAlert) error {
	return r.db.Create(alert).Error
}

func (r *GormFraudAlertRepository) FindUnresolved(limit, offset int) ([]domain.FraudAlert, error) {
	var alerts []domain.FraudAlert
	err := r.db.Where("resolved = ?", false).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (r *GormFraudAlertRepository) Resolve(id uint, resolvedBy uint) error {
	return r.db.Model(&domain.FraudAlert{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"resolved":    true,
			"resolved_by": resolvedBy,
			"resolved_at": time.Now(),
		}).Error
}

type GormGatewayConfigRepository struct {
	db *gorm.DB
}

func NewGormGatewayConfigRepository(db *gorm.DB) *GormGatewayConfigRepository {
	return &GormGatewayConfigRepository{db: db}
}

func (r *GormGatewayConfigRepository) FindActive() ([]domain.GatewayConfig, error) {
	var configs []domain.GatewayConfig
	err := r.db.Where("is_active = ?", true).Find(&configs).Error
	return configs, err
}

func (r *GormGatewayConfigRepository) FindByID(id uint) (*domain.GatewayConfig, error) {
	var config domain.GatewayConfig
	err := r.db.First(&config, id).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}
