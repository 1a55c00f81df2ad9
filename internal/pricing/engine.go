// Package pricing computes recommended prices for healthcare
// services from diagnosis complexity, market data, bulk tiers, and an
// advisory oracle with a deterministic fallback.
package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/medsouq/marketplace/internal/currency"
	"github.com/medsouq/marketplace/internal/pricing/domain"
	"github.com/medsouq/marketplace/pkg/logger"
	"github.com/medsouq/marketplace/pkg/metrics"
)

// PriceFloor is the minimum rule-based unit price in LYD.
const PriceFloor = 50.0

// Engine runs the pricing pipeline: cache, rule price, oracle advice,
// bulk discount, audit row.
type Engine struct {
	cache   Cache
	advisor Advisor
	repo    domain.PricingRepository
	ttl     time.Duration
}

func NewEngine(cache Cache, advisor Advisor, repo domain.PricingRepository) *Engine {
	return &Engine{cache: cache, advisor: advisor, repo: repo, ttl: DefaultCacheTTL}
}

// Calculate prices one service request. Identical requests within the
// cache TTL return the cached result unchanged apart from CacheHit.
func (e *Engine) Calculate(ctx context.Context, in domain.Input) (*domain.Result, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", in.Quantity)
	}
	if in.Currency == "" {
		in.Currency = currency.Home
	}

	key := CacheKey(in)
	if cached, err := e.cache.Get(ctx, key); err != nil {
		logger.Warn(ctx).Err(err).Str("key", key).Msg("Pricing cache lookup failed")
	} else if cached != nil {
		cached.CacheHit = true
		metrics.PricingRequestsTotal.WithLabelValues("cache").Inc()
		return cached, nil
	}

	result := e.compute(ctx, in)

	if err := e.cache.Set(ctx, key, result, e.ttl); err != nil {
		logger.Warn(ctx).Err(err).Str("key", key).Msg("Failed to cache pricing result")
	}
	if err := e.repo.Create(&domain.Calculation{
		ServiceName:     result.ServiceName,
		ICD11Code:       result.ICD11Code,
		Quantity:        result.Quantity,
		Region:          result.Region,
		Currency:        result.Currency,
		BasePrice:       result.BasePrice,
		DiscountPercent: result.DiscountPercent,
		FinalPrice:      result.FinalPrice,
		Source:          result.Source,
	}); err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to persist pricing calculation")
	}

	metrics.PricingRequestsTotal.WithLabelValues(result.Source).Inc()
	return result, nil
}

func (e *Engine) compute(ctx context.Context, in domain.Input) *domain.Result {
	complexity := Complexity(in.ICD11Code)
	rulePrice := rulePrice(in.ServiceName, complexity, in.Region)
	market := syntheticMarket(rulePrice)
	discount := BulkDiscountPercent(in.Quantity)

	base := in.BasePrice
	if base <= 0 {
		base = rulePrice
	}

	advice, source := e.advise(ctx, in, complexity, market, discount)

	final := base * (1 - discount/100)
	if advice.MinPrice > final {
		final = advice.MinPrice
	}
	final = round2(final)

	return &domain.Result{
		ServiceName:     in.ServiceName,
		ICD11Code:       in.ICD11Code,
		Quantity:        in.Quantity,
		Region:          in.Region,
		Currency:        in.Currency,
		Complexity:      complexity,
		BasePrice:       base,
		DiscountPercent: discount,
		FinalPrice:      final,
		HealthUnits:     round2(final / currency.HealthUnitRate(in.Region)),
		Market:          market,
		Advice:          *advice,
		Source:          source,
		CalculatedAt:    time.Now(),
	}
}

func (e *Engine) advise(ctx context.Context, in domain.Input, complexity float64, market domain.MarketData, discount float64) (*domain.Advice, string) {
	if e.advisor != nil {
		advice, err := e.advisor.Advise(ctx, AdviceRequest{
			ServiceName:     in.ServiceName,
			Description:     in.Description,
			ICD11Code:       in.ICD11Code,
			Complexity:      complexity,
			Market:          market,
			Quantity:        in.Quantity,
			DiscountPercent: discount,
			Region:          in.Region,
			Currency:        in.Currency,
		})
		if err == nil {
			return advice, domain.SourceOracle
		}
		logger.Warn(ctx).Err(err).Str("service", in.ServiceName).Msg("Pricing oracle unavailable, using fallback")
	}

	suggested := round2(market.Average * complexity * 1.5 * (1 - discount/100))
	return &domain.Advice{
		SuggestedPrice: suggested,
		MinPrice:       round2(suggested * 0.7),
		Reasoning: fmt.Sprintf(
			"Deterministic estimate from market average %.2f at complexity %.1f with %.0f%% bulk discount.",
			market.Average, complexity, discount),
	}, domain.SourceFallback
}

// CalculateBulk prices a cart of services. Batches of 5 or more get
// an extra flat 5% off every item, applied after per-item pricing.
func (e *Engine) CalculateBulk(ctx context.Context, inputs []domain.Input) ([]domain.Result, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("bulk calculation needs at least one item")
	}

	results := make([]domain.Result, 0, len(inputs))
	for _, in := range inputs {
		result, err := e.Calculate(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to price %q: %w", in.ServiceName, err)
		}
		results = append(results, *result)
	}

	if len(results) >= 5 {
		for i := range results {
			results[i].FinalPrice = round2(results[i].FinalPrice * 0.95)
			results[i].DiscountPercent += 5
			results[i].HealthUnits = round2(results[i].FinalPrice / currency.HealthUnitRate(results[i].Region))
		}
	}
	return results, nil
}

// Complexity grades a diagnosis by ICD-11 code length. Longer codes
// sit deeper in the classification tree.
func Complexity(icd11Code string) float64 {
	code := strings.TrimSpace(icd11Code)
	switch {
	case code == "":
		return 2.0
	case len(code) <= 3:
		return 1.0
	case len(code) <= 5:
		return 2.0
	case len(code) <= 7:
		return 3.0
	default:
		return 4.0
	}
}

// BulkDiscountPercent returns the tiered quantity discount.
func BulkDiscountPercent(quantity int) float64 {
	switch {
	case quantity >= 100:
		return 25
	case quantity >= 50:
		return 15
	case quantity >= 20:
		return 10
	case quantity >= 10:
		return 5
	default:
		return 0
	}
}

func rulePrice(serviceName string, complexity float64, region string) float64 {
	price := PriceFloor * complexity * keywordMultiplier(serviceName) * currency.RegionMultiplier(region)
	return round2(price)
}

func keywordMultiplier(serviceName string) float64 {
	name := strings.ToLower(serviceName)
	switch {
	case strings.Contains(name, "surgery"):
		return 5.0
	case strings.Contains(name, "consultation"):
		return 1.5
	case strings.Contains(name, "test"), strings.Contains(name, "scan"):
		return 2.0
	default:
		return 1.0
	}
}

func syntheticMarket(rulePrice float64) domain.MarketData {
	return domain.MarketData{
		Average: rulePrice,
		Min:     round2(rulePrice * 0.6),
		Max:     round2(rulePrice * 1.8),
		Trend:   "stable",
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
