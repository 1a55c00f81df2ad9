package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCompliance(t *testing.T) {
	tests := []struct {
		name       string
		input      ComplianceInput
		compliant  bool
		issueCount int
	}{
		{
			name: "clean transaction",
			input: ComplianceInput{
				Currency:      "LYD",
				Amount:        1200,
				PaymentMethod: "card",
				UserCity:      "Tripoli",
				MerchantType:  "clinic",
			},
			compliant: true,
		},
		{
			name: "unsupported currency",
			input: ComplianceInput{
				Currency:      "GBP",
				Amount:        100,
				PaymentMethod: "card",
				UserCity:      "Benghazi",
			},
			compliant:  false,
			issueCount: 1,
		},
		{
			name: "mobile money over the cap",
			input: ComplianceInput{
				Currency:      "LYD",
				Amount:        5001,
				PaymentMethod: "mobile_money",
				UserCity:      "Misrata",
			},
			compliant:  false,
			issueCount: 1,
		},
		{
			name: "mobile money cap applies after conversion",
			input: ComplianceInput{
				Currency:      "USD",
				Amount:        2000, // well above 5000 LYD once converted
				PaymentMethod: "mobile_money",
				UserCity:      "Tripoli",
			},
			compliant:  false,
			issueCount: 1,
		},
		{
			name: "all violations are collected",
			input: ComplianceInput{
				Currency:      "GBP",
				Amount:        9000,
				PaymentMethod: "mobile_money",
				UserCity:      "Atlantis",
				MerchantType:  "gambling",
			},
			compliant:  false,
			issueCount: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckCompliance(tt.input)
			assert.Equal(t, tt.compliant, result.Compliant)
			assert.Len(t, result.Issues, tt.issueCount)
		})
	}
}
