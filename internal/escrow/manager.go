// Package escrow keeps buyer funds on hold per order until delivery
// is confirmed or the holding period lapses.
package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/medsouq/marketplace/internal/escrow/domain"
	"github.com/medsouq/marketplace/pkg/logger"
	"github.com/medsouq/marketplace/pkg/metrics"
)

// DefaultHoldingPeriod is how long funds stay held before automatic
// release if nobody touches the account.
const DefaultHoldingPeriod = 7 * 24 * time.Hour

// Manager layers the escrow policy over the ledger repository.
type Manager struct {
	repo          domain.EscrowRepository
	holdingPeriod time.Duration
}

func NewManager(repo domain.EscrowRepository) *Manager {
	return &Manager{repo: repo, holdingPeriod: DefaultHoldingPeriod}
}

// Fund opens an escrow account holding the full payment amount.
func (m *Manager) Fund(ctx context.Context, orderID, paymentID uint, amount float64, currencyCode string) (*domain.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("escrow amount must be positive")
	}

	account := &domain.Account{
		OrderID:     orderID,
		PaymentID:   paymentID,
		TotalAmount: amount,
		HeldAmount:  amount,
		Currency:    currencyCode,
		Status:      domain.StatusHolding,
		HoldUntil:   time.Now().Add(m.holdingPeriod),
	}
	entry := &domain.LedgerEntry{Type: domain.EntryHold, Amount: amount, Note: "payment captured"}

	if err := m.repo.Create(account, entry); err != nil {
		return nil, fmt.Errorf("failed to open escrow account: %w", err)
	}

	logger.Info(ctx).
		Uint("order_id", orderID).
		Float64("amount", amount).
		Msg("Escrow account funded")
	return account, nil
}

// Release moves amount from held to released. A request exceeding the
// current held balance is rejected and the account is left unchanged.
// The held + released == total invariant holds after every call.
func (m *Manager) Release(ctx context.Context, accountID uint, amount float64, note string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("release amount must be positive")
	}

	released := false
	err := m.repo.UpdateLocked(accountID, func(account *domain.Account) (*domain.LedgerEntry, error) {
		if amount > account.HeldAmount {
			return nil, errReleaseExceedsHeld
		}
		account.HeldAmount -= amount
		account.ReleasedAmount += amount
		if account.HeldAmount == 0 {
			account.Status = domain.StatusReleased
		} else {
			account.Status = domain.StatusPartial
		}
		released = true
		return &domain.LedgerEntry{Type: domain.EntryRelease, Amount: amount, Note: note}, nil
	})
	if err == errReleaseExceedsHeld {
		logger.Warn(ctx).
			Uint("account_id", accountID).
			Float64("amount", amount).
			Msg("Escrow release rejected, exceeds held balance")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to release escrow funds: %w", err)
	}

	if released {
		metrics.EscrowReleasedAmount.Add(amount)
	}
	return true, nil
}

var errReleaseExceedsHeld = fmt.Errorf("release exceeds held balance")

// Refund returns the held balance to the buyer when an order is
// cancelled after capture.
func (m *Manager) Refund(ctx context.Context, orderID uint) error {
	account, err := m.repo.FindByOrderID(orderID)
	if err != nil {
		return fmt.Errorf("no escrow account for order %d: %w", orderID, err)
	}

	return m.repo.UpdateLocked(account.ID, func(account *domain.Account) (*domain.LedgerEntry, error) {
		refunded := account.HeldAmount
		account.HeldAmount = 0
		account.ReleasedAmount = account.TotalAmount
		account.Status = domain.StatusRefunded
		return &domain.LedgerEntry{Type: domain.EntryRefund, Amount: refunded, Note: "order cancelled"}, nil
	})
}

// ReleaseExpired releases every account past its holding period. Used
// by the scheduler; partial completion is acceptable.
func (m *Manager) ReleaseExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	accounts, err := m.repo.FindExpired(time.Now(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired escrow accounts: %w", err)
	}

	released := 0
	for _, account := range accounts {
		ok, err := m.Release(ctx, account.ID, account.HeldAmount, "holding period elapsed")
		if err != nil {
			logger.Error(ctx).Err(err).Uint("account_id", account.ID).Msg("Failed to auto-release escrow account")
			continue
		}
		if ok {
			released++
		}
	}

	logger.Info(ctx).
		Int("candidates", len(accounts)).
		Int("released", released).
		Msg("Escrow auto-release pass finished")
	return released, nil
}
