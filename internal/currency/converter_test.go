package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("LYD"))
	assert.True(t, IsSupported("usd"))
	assert.True(t, IsSupported("Eur"))
	assert.False(t, IsSupported("GBP"))
	assert.False(t, IsSupported(""))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		from     string
		to       string
		expected float64
	}{
		{"same currency", 100, "LYD", "LYD", 100},
		{"usd to lyd", 100, "USD", "LYD", 485},
		{"lyd to usd", 485, "LYD", "USD", 100},
		{"eur to usd through lyd", 100, "EUR", "USD", 100 * 5.25 / 4.85},
		{"case insensitive", 100, "usd", "lyd", 485},
		{"unknown currency converts 1:1", 100, "GBP", "LYD", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Convert(tt.amount, tt.from, tt.to), 0.001)
		})
	}
}

func TestRegionMultiplier(t *testing.T) {
	assert.Equal(t, 1.2, RegionMultiplier("Tripoli"))
	assert.Equal(t, 0.9, RegionMultiplier("sabha"))
	assert.Equal(t, 1.0, RegionMultiplier("unknown-region"))
}

func TestHealthUnitRate(t *testing.T) {
	assert.Equal(t, 5.0, HealthUnitRate("tripoli"))
	assert.Equal(t, 1.0, HealthUnitRate(""))
}
