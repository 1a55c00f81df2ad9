package repository

import (
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/invoice/domain"
)

type GormInvoiceRepository struct {
	db *gorm.DB
}

func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Invoice{})
}

func (r *GormInvoiceRepository) Create(invoice *domain.Invoice) error {
	return r.db.Create(invoice).Error
}

func (r *GormInvoiceRepository) FindByID(id uint) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *GormInvoiceRepository) FindByOrderID(orderID uint) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.Where("order_id = ?", orderID).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *GormInvoiceRepository) FindByUserID(userID uint, limit, offset int) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.Where("user_id = ?", userID).
		Order("issued_at DESC").
		Limit(limit).Offset(offset).
		Find(&invoices).Error
	return invoices, err
}

func (r *GormInvoiceRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&domain.Invoice{}).Where("id = ?", id).Update("status", status).Error
}
