package domain

import "time"

// Result sources.
const (
	SourceOracle   = "oracle"
	SourceFallback = "fallback"
)

// Input describes one pricing request for a healthcare service.
type Input struct {
	ServiceName string  `json:"service_name"`
	Description string  `json:"description"`
	ICD11Code   string  `json:"icd11_code"`
	Quantity    int     `json:"quantity"`
	BasePrice   float64 `json:"base_price"`
	Currency    string  `json:"currency"`
	Region      string  `json:"region"`
}

// MarketData is the synthetic market snapshot used to anchor the
// advisory price.
type MarketData struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Trend   string  `json:"trend"`
}

// Advice is what the advisory oracle (or its deterministic fallback)
// recommends.
type Advice struct {
	SuggestedPrice float64 `json:"suggested_price"`
	MinPrice       float64 `json:"min_price"`
	Reasoning      string  `json:"reasoning"`
}

// Result is the full outcome of one pricing calculation. Cached
// results come back with CacheHit set and are otherwise identical.
type Result struct {
	ServiceName     string     `json:"service_name"`
	ICD11Code       string     `json:"icd11_code"`
	Quantity        int        `json:"quantity"`
	Region          string     `json:"region"`
	Currency        string     `json:"currency"`
	Complexity      float64    `json:"complexity"`
	BasePrice       float64    `json:"base_price"`
	DiscountPercent float64    `json:"discount_percent"`
	FinalPrice      float64    `json:"final_price"`
	HealthUnits     float64    `json:"health_units"`
	Market          MarketData `json:"market"`
	Advice          Advice     `json:"advice"`
	Source          string     `json:"source"`
	CacheHit        bool       `json:"cache_hit"`
	CalculatedAt    time.Time  `json:"calculated_at"`
}

// Calculation is the audit row stored for every computed result.
// Immutable once created.
type Calculation struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ServiceName     string    `json:"service_name" gorm:"not null;index"`
	ICD11Code       string    `json:"icd11_code" gorm:"index"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	Region          string    `json:"region"`
	Currency        string    `json:"currency"`
	BasePrice       float64   `json:"base_price"`
	DiscountPercent float64   `json:"discount_percent"`
	FinalPrice      float64   `json:"final_price" gorm:"not null"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name
func (Calculation) TableName() string {
	return "pricing_calculations"
}

// PricingRepository persists calculation audit rows.
type PricingRepository interface {
	Create(calc *Calculation) error
	FindRecent(limit, offset int) ([]Calculation, error)
	FindByService(serviceName string, limit int) ([]Calculation, error)
}
