package repository

import (
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/pricing/domain"
)

type GormPricingRepository struct {
	db *gorm.DB
}

func NewGormPricingRepository(db *gorm.DB) *GormPricingRepository {
	return &GormPricingRepository{db: db}
}

func (r *GormPricingRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Calculation{})
}

func (r *GormPricingRepository) Create(calc *domain.Calculation) error {
	return r.db.Create(calc).Error
}

func (r *GormPricingRepository) FindRecent(limit, offset int) ([]domain.Calculation, error) {
	var calcs []domain.Calculation
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&calcs).Error
	return calcs, err
}

func (r *GormPricingRepository) FindByService(serviceName string, limit int) ([]domain.Calculation, error) {
	var calcs []domain.Calculation
	err := r.db.Where("service_name = ?", serviceName).
		Order("created_at DESC").Limit(limit).
		Find(&calcs).Error
	return calcs, err
}
