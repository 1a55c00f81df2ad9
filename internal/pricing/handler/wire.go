//go:build wireinject
// +build wireinject

package handler

import (
	"github.com/google/wire"
	"gorm.io/gorm"
)

// InitializeHandler initializes the pricing handler with all
// dependencies
func InitializeHandler(db *gorm.DB, cfg Config) *PricingHandler {
	wire.Build(
		EngineSet,
		NewPricingHandler,
	)
	return nil
}
