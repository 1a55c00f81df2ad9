package repository

import (
	"github.com/medsouq/marketplace/internal/order/domain"
	"gorm.io/gorm"
)

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Order{}, &domain.OrderItem{})
}

// Create inserts the order and its items inside the caller's
// transaction so order+payment creation stays all-or-nothing.
func (r *GormOrderRepository) Create(tx *gorm.DB, order *domain.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(order).Error
}

func (r *GormOrderRepository) FindByID(id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByBuyerID(buyerID uint, limit, offset int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.Where("buyer_id = ?", buyerID).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *GormOrderRepository) UpdateStatusIf(id uint, expected, status string) (bool, error) {
	result := r.db.Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", status)
	return result.RowsAffected > 0, result.Error
}
