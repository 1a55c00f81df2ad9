package security

import (
	"context"
	"net"
	"strings"
	"time"
)

// History supplies the user's recent payment behaviour for velocity and
// device checks. Backed by the payment repository in production.
type History interface {
	CountRecentPayments(ctx context.Context, userID uint, since time.Time) (int, error)
	RecentUserAgents(ctx context.Context, userID uint, limit int) ([]string, error)
}

// FraudInput describes one payment attempt to be scored.
type FraudInput struct {
	UserID        uint
	Amount        float64
	PaymentMethod string // mobile_money, bank_transfer, card
	IPAddress     string
	UserAgent     string
}

// FraudScorer computes a 0-100 risk score. Higher is riskier.
type FraudScorer struct {
	history History
}

func NewFraudScorer(history History) *FraudScorer {
	return &FraudScorer{history: history}
}

// Score evaluates the heuristics and clamps the result to [0, 100].
// History lookups failing softly contribute zero rather than aborting
// the screening.
func (s *FraudScorer) Score(ctx context.Context, in FraudInput) (int, []string) {
	score := 0
	var reasons []string

	switch {
	case in.Amount > 10000:
		score += 30
		reasons = append(reasons, "amount exceeds 10000")
	case in.Amount > 5000:
		score += 20
		reasons = append(reasons, "amount exceeds 5000")
	case in.Amount > 1000:
		score += 10
		reasons = append(reasons, "amount exceeds 1000")
	}

	switch in.PaymentMethod {
	case "bank_transfer":
		score -= 20
	case "mobile_money":
		score -= 10
	}

	if s.history != nil {
		since := time.Now().Add(-24 * time.Hour)
		if count, err := s.history.CountRecentPayments(ctx, in.UserID, since); err == nil {
			if count > 5 {
				score += 25
				reasons = append(reasons, "more than 5 payments in 24h")
			} else if count > 2 {
				score += 15
				reasons = append(reasons, "more than 2 payments in 24h")
			}
		}

		if in.UserAgent != "" {
			if agents, err := s.history.RecentUserAgents(ctx, in.UserID, 5); err == nil && len(agents) > 0 {
				if userAgentDrift(in.UserAgent, agents) {
					score += 20
					reasons = append(reasons, "user agent differs from recent history")
				}
			}
		}
	}

	// Placeholder heuristic until a real threat-intelligence feed is
	// wired in: private and reserved source addresses are treated as
	// spoofing indicators.
	if isSuspiciousIP(in.IPAddress) {
		score += 40
		reasons = append(reasons, "source ip in private or reserved range")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, reasons
}

func isSuspiciousIP(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified()
}

// userAgentDrift reports whether the current browser family differs
// from every agent seen recently.
func userAgentDrift(current string, recent []string) bool {
	family := browserFamily(current)
	for _, agent := range recent {
		if browserFamily(agent) == family {
			return false
		}
	}
	return true
}

func browserFamily(agent string) string {
	agent = strings.ToLower(agent)
	for _, family := range []string{"edg", "opr", "chrome", "safari", "firefox"} {
		if strings.Contains(agent, family) {
			return family
		}
	}
	return "other"
}
