package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Gateway provider identifiers. The manager instantiates one adapter
// per provider family.
const (
	ProviderSadad    = "sadad"    // mobile money
	ProviderMobicash = "mobicash" // mobile money
	ProviderCBL      = "cbl"      // bank transfer
	ProviderMoamalat = "moamalat" // card
)

// GatewayConfig is a read-mostly gateway configuration row, loaded at
// manager initialization. Credentials are stored encrypted.
type GatewayConfig struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Name                string         `json:"name" gorm:"not null"`
	Provider            string         `json:"provider" gorm:"not null;index"`
	Type                string         `json:"type" gorm:"not null"` // mobile_money, bank_transfer, card
	BaseURL             string         `json:"base_url"`
	APIKeyEncrypted     string         `json:"-" gorm:"type:text"`
	WebhookSecret       string         `json:"-" gorm:"type:text"`
	SupportedCurrencies string         `json:"supported_currencies"` // comma separated ISO codes
	IsActive            bool           `json:"is_active" gorm:"default:true;index"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (GatewayConfig) TableName() string {
	return "gateway_configs"
}

// SupportsCurrency reports whether the gateway accepts the given
// currency code.
func (g *GatewayConfig) SupportsCurrency(code string) bool {
	for _, c := range strings.Split(g.SupportedCurrencies, ",") {
		if strings.EqualFold(strings.TrimSpace(c), code) {
			return true
		}
	}
	return false
}

// GatewayConfigRepository defines the contract for gateway config access
type GatewayConfigRepository interface {
	FindActive() ([]GatewayConfig, error)
	FindByID(id uint) (*GatewayConfig, error)
}
