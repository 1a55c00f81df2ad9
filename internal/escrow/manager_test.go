package escrow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsouq/marketplace/internal/escrow/domain"
)

type memEscrowRepo struct {
	nextID   uint
	accounts map[uint]*domain.Account
	entries  []domain.LedgerEntry
}

func newMemEscrowRepo() *memEscrowRepo {
	return &memEscrowRepo{nextID: 1, accounts: map[uint]*domain.Account{}}
}

func (r *memEscrowRepo) Create(account *domain.Account, entry *domain.LedgerEntry) error {
	account.ID = r.nextID
	r.nextID++
	copied := *account
	r.accounts[account.ID] = &copied
	entry.AccountID = account.ID
	entry.OrderID = account.OrderID
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memEscrowRepo) FindByOrderID(orderID uint) (*domain.Account, error) {
	for _, account := range r.accounts {
		if account.OrderID == orderID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("escrow account not found")
}

func (r *memEscrowRepo) FindExpired(now time.Time, limit int) ([]domain.Account, error) {
	var out []domain.Account
	for _, account := range r.accounts {
		if len(out) >= limit {
			break
		}
		if (account.Status == domain.StatusHolding || account.Status == domain.StatusPartial) &&
			account.HoldUntil.Before(now) {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (r *memEscrowRepo) UpdateLocked(accountID uint, fn func(*domain.Account) (*domain.LedgerEntry, error)) error {
	account, ok := r.accounts[accountID]
	if !ok {
		return fmt.Errorf("escrow account not found")
	}
	working := *account
	entry, err := fn(&working)
	if err != nil {
		return err
	}
	*account = working
	if entry != nil {
		entry.AccountID = account.ID
		entry.OrderID = account.OrderID
		r.entries = append(r.entries, *entry)
	}
	return nil
}

func TestFundOpensHoldingAccount(t *testing.T) {
	repo := newMemEscrowRepo()
	mgr := NewManager(repo)

	account, err := mgr.Fund(context.Background(), 10, 20, 1500.0, "LYD")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusHolding, account.Status)
	assert.Equal(t, 1500.0, account.HeldAmount)
	assert.Equal(t, 0.0, account.ReleasedAmount)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, domain.EntryHold, repo.entries[0].Type)
}

func TestFundRejectsNonPositiveAmount(t *testing.T) {
	mgr := NewManager(newMemEscrowRepo())

	_, err := mgr.Fund(context.Background(), 10, 20, 0, "LYD")
	assert.Error(t, err)
}

func TestReleaseKeepsBalanceInvariant(t *testing.T) {
	repo := newMemEscrowRepo()
	mgr := NewManager(repo)
	ctx := context.Background()

	account, err := mgr.Fund(ctx, 10, 20, 1000.0, "LYD")
	require.NoError(t, err)

	releases := []float64{100, 250, 400, 250}
	for _, amount := range releases {
		ok, err := mgr.Release(ctx, account.ID, amount, "milestone")
		require.NoError(t, err)
		assert.True(t, ok)

		current := repo.accounts[account.ID]
		assert.Equal(t, current.TotalAmount, current.HeldAmount+current.ReleasedAmount)
	}

	final := repo.accounts[account.ID]
	assert.Equal(t, 0.0, final.HeldAmount)
	assert.Equal(t, 1000.0, final.ReleasedAmount)
	assert.Equal(t, domain.StatusReleased, final.Status)
}

func TestPartialReleaseStatus(t *testing.T) {
	repo := newMemEscrowRepo()
	mgr := NewManager(repo)
	ctx := context.Background()

	account, err := mgr.Fund(ctx, 10, 20, 1000.0, "LYD")
	require.NoError(t, err)

	ok, err := mgr.Release(ctx, account.ID, 300, "first milestone")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.StatusPartial, repo.accounts[account.ID].Status)
}

func TestReleaseExceedingHeldIsRejected(t *testing.T) {
	repo := newMemEscrowRepo()
	mgr := NewManager(repo)
	ctx := context.Background()

	account, err := mgr.Fund(ctx, 10, 20, 500.0, "LYD")
	require.NoError(t, err)

	ok, err := mgr.Release(ctx, account.ID, 600, "too much")
	require.NoError(t, err)
	assert.False(t, ok)

	current := repo.accounts[account.ID]
	assert.Equal(t, 500.0, current.HeldAmount)
	assert.Equal(t, 0.0, current.ReleasedAmount)
	assert.Equal(t, domain.StatusHolding, current.Status)
}

func TestRefundReturnsHeldBalance(t *testing.T) {
	repo := newMemEscrowRepo()
	mgr := NewManager(repo)
	ctx := context.Background()

	account, err := mgr.Fund(ctx, 10, 20, 800.0, "LYD")
	require.NoError(t, err)
	_, err = mgr.Release(ctx, account.ID, 200, "partial")
	require.NoError(t, err)

	require.NoError(t, mgr.Refund(ctx, 10))

	current := repo.accounts[account.ID]
	assert.Equal(t, domain.StatusRefunded, current.Status)
	assert.Equal(t, 0.0, current.HeldAmount)
	assert.Equal(t, current.TotalAmount, current.ReleasedAmount)
}

func TestReleaseExpiredReleasesPastDueAccounts(t *testing.T) {
	repo := newMemEscrowRepo()
	mgr := NewManager(repo)
	mgr.holdingPeriod = -time.Hour
	ctx := context.Background()

	_, err := mgr.Fund(ctx, 10, 20, 400.0, "LYD")
	require.NoError(t, err)
	_, err = mgr.Fund(ctx, 11, 21, 600.0, "LYD")
	require.NoError(t, err)

	released, err := mgr.ReleaseExpired(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	for _, account := range repo.accounts {
		assert.Equal(t, domain.StatusReleased, account.Status)
		assert.Equal(t, 0.0, account.HeldAmount)
	}
}
