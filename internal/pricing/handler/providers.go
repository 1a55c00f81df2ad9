package handler

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/icd11"
	"github.com/medsouq/marketplace/internal/pricing"
	"github.com/medsouq/marketplace/internal/pricing/domain"
	"github.com/medsouq/marketplace/internal/pricing/repository"
)

// Config carries the pricing service dependencies that come from the
// environment.
type Config struct {
	RedisAddr      string // empty falls back to the in-process cache
	OracleEndpoint string
	OracleAPIKey   string
	OracleModel    string
	ICD11BaseURL   string // empty disables code validation and search
	ICD11Token     string
}

func ProvidePricingRepository(db *gorm.DB) domain.PricingRepository {
	return repository.NewGormPricingRepository(db)
}

func ProvideCache(cfg Config) pricing.Cache {
	if cfg.RedisAddr == "" {
		return pricing.NewMemoryCache()
	}
	return pricing.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
}

func ProvideAdvisor(cfg Config) pricing.Advisor {
	return pricing.NewHTTPAdvisor(cfg.OracleEndpoint, cfg.OracleAPIKey, cfg.OracleModel)
}

func ProvideEngine(cache pricing.Cache, advisor pricing.Advisor, repo domain.PricingRepository) *pricing.Engine {
	return pricing.NewEngine(cache, advisor, repo)
}

func ProvideICD11Client(cfg Config) *icd11.Client {
	if cfg.ICD11BaseURL == "" {
		return nil
	}
	return icd11.NewClient(cfg.ICD11BaseURL, cfg.ICD11Token)
}

var EngineSet = wire.NewSet(
	ProvidePricingRepository,
	ProvideCache,
	ProvideAdvisor,
	ProvideEngine,
	ProvideICD11Client,
)
