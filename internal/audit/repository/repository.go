package repository

import (
	"github.com/medsouq/marketplace/internal/audit/domain"
	"gorm.io/gorm"
)

type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Record{})
}

func (r *GormAuditRepository) Create(record *domain.Record) error {
	return r.db.Create(record).Error
}

func (r *GormAuditRepository) FindByAction(action string, limit, offset int) ([]domain.Record, error) {
	var records []domain.Record
	err := r.db.Where("action = ?", action).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *GormAuditRepository) FindByUserID(userID uint, limit, offset int) ([]domain.Record, error) {
	var records []domain.Record
	err := r.db.Where("user_id = ?", userID).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
