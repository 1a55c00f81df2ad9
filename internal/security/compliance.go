package security

import (
	"fmt"
	"strings"

	"github.com/medsouq/marketplace/internal/currency"
)

// ComplianceInput describes a transaction to be checked against Libyan
// payment regulations.
type ComplianceInput struct {
	Currency      string
	Amount        float64
	PaymentMethod string
	UserCity      string
	MerchantType  string
}

// ComplianceResult collects every violation rather than stopping at the
// first, so callers can present a complete picture to the merchant.
type ComplianceResult struct {
	Compliant bool     `json:"compliant"`
	Issues    []string `json:"issues"`
}

// mobileMoneyCapLYD is the regulatory ceiling for a single mobile-money
// transaction.
const mobileMoneyCapLYD = 5000

var allowedCities = map[string]bool{
	"tripoli":  true,
	"benghazi": true,
	"misrata":  true,
	"sabha":    true,
	"zawiya":   true,
	"zliten":   true,
	"ajdabiya": true,
	"tobruk":   true,
}

var restrictedMerchantTypes = map[string]bool{
	"gambling":   true,
	"weapons":    true,
	"restricted": true,
}

// CheckCompliance validates the transaction against the Libyan rule
// set. All violations are reported.
func CheckCompliance(in ComplianceInput) ComplianceResult {
	var issues []string

	if !currency.IsSupported(in.Currency) {
		issues = append(issues, fmt.Sprintf("currency %s is not permitted; allowed: %s",
			in.Currency, strings.Join(currency.Supported, ", ")))
	}

	if in.PaymentMethod == "mobile_money" {
		amountLYD := currency.Convert(in.Amount, in.Currency, currency.Home)
		if amountLYD > mobileMoneyCapLYD {
			issues = append(issues, fmt.Sprintf("mobile money payments are capped at %d LYD", mobileMoneyCapLYD))
		}
	}

	if in.UserCity != "" && !allowedCities[strings.ToLower(in.UserCity)] {
		issues = append(issues, fmt.Sprintf("user location %q is not a recognized city", in.UserCity))
	}

	if restrictedMerchantTypes[strings.ToLower(in.MerchantType)] {
		issues = append(issues, fmt.Sprintf("merchant type %q is restricted", in.MerchantType))
	}

	return ComplianceResult{Compliant: len(issues) == 0, Issues: issues}
}
