package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medsouq/marketplace/internal/escrow/domain"
)

type GormEscrowRepository struct {
	db *gorm.DB
}

func NewGormEscrowRepository(db *gorm.DB) *GormEscrowRepository {
	return &GormEscrowRepository{db: db}
}

func (r *GormEscrowRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Account{}, &domain.LedgerEntry{})
}

func (r *GormEscrowRepository) Create(account *domain.Account, entry *domain.LedgerEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		entry.AccountID = account.ID
		entry.OrderID = account.OrderID
		return tx.Create(entry).Error
	})
}

func (r *GormEscrowRepository) FindByOrderID(orderID uint) (*domain.Account, error) {
	var account domain.Account
	err := r.db.Where("order_id = ?", orderID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *GormEscrowRepository) FindExpired(now time.Time, limit int) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.Where("status IN ? AND hold_until < ?",
		[]string{domain.StatusHolding, domain.StatusPartial}, now).
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

// UpdateLocked serializes balance mutations per account with a row
// lock, so concurrent releases cannot both read the same held amount.
func (r *GormEscrowRepository) UpdateLocked(accountID uint, fn func(*domain.Account) (*domain.LedgerEntry, error)) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var account domain.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, accountID).Error; err != nil {
			return err
		}

		entry, err := fn(&account)
		if err != nil {
			return err
		}

		if err := tx.Save(&account).Error; err != nil {
			return err
		}
		if entry != nil {
			entry.AccountID = account.ID
			entry.OrderID = account.OrderID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
