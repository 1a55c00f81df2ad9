package currency

import "strings"

// LYD is the home currency. Every gateway quotes in LYD unless its
// configuration says otherwise, and compliance rules are expressed in it.
const Home = "LYD"

// Supported ISO codes accepted by the platform.
var Supported = []string{"LYD", "USD", "EUR"}

// exchange rates to LYD. Read-mostly; updated by ops with a deploy,
// not fetched from a feed.
var ratesToLYD = map[string]float64{
	"LYD": 1.0,
	"USD": 4.85,
	"EUR": 5.25,
}

// regionMultipliers adjusts prices for regional market conditions.
var regionMultipliers = map[string]float64{
	"tripoli":  1.2,
	"benghazi": 1.1,
	"misrata":  1.05,
	"sabha":    0.9,
	"zawiya":   1.0,
}

// healthUnitRates converts an LYD price into normalized health units
// per region. Unknown regions convert 1:1.
var healthUnitRates = map[string]float64{
	"tripoli":  5.0,
	"benghazi": 4.8,
	"misrata":  4.6,
	"sabha":    4.2,
	"zawiya":   4.5,
}

// IsSupported reports whether code is an accepted platform currency.
func IsSupported(code string) bool {
	for _, c := range Supported {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// Convert converts amount between two supported currencies through LYD.
// Unknown currencies convert 1:1, a documented degradation rather than
// an error: pricing must never fail on an unrecognized code.
func Convert(amount float64, from, to string) float64 {
	fromRate, ok := ratesToLYD[strings.ToUpper(from)]
	if !ok {
		fromRate = 1.0
	}
	toRate, ok := ratesToLYD[strings.ToUpper(to)]
	if !ok {
		toRate = 1.0
	}
	return amount * fromRate / toRate
}

// RegionMultiplier returns the pricing multiplier for a region,
// defaulting to 1.0 for unknown regions.
func RegionMultiplier(region string) float64 {
	if m, ok := regionMultipliers[strings.ToLower(region)]; ok {
		return m
	}
	return 1.0
}

// HealthUnitRate returns the LYD-to-health-unit divisor for a region,
// defaulting to 1.0 for unknown regions.
func HealthUnitRate(region string) float64 {
	if r, ok := healthUnitRates[strings.ToLower(region)]; ok {
		return r
	}
	return 1.0
}
