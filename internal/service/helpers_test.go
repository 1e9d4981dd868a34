package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedAccount(t *testing.T, store *memory.Store, phone string, referredBy *uuid.UUID) *domain.Account {
	t.Helper()
	a := &domain.Account{
		ID:           uuid.New(),
		Name:         "user " + phone,
		PhoneNumber:  phone,
		Role:         domain.RoleUser,
		ReferralCode: "CODE" + phone[len(phone)-4:],
		ReferredByID: referredBy,
		IsActive:     true,
		CreatedAt:    testNow,
	}
	require.NoError(t, store.CreateAccount(context.Background(), a))
	return a
}

func reload(t *testing.T, store *memory.Store, id uuid.UUID) *domain.Account {
	t.Helper()
	a, err := store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a
}

type recordingNotifier struct {
	mu          sync.Mutex
	reviewed    []*domain.Purchase
	commissions []*domain.Commission
	requested   []*domain.Withdrawal
	processed   []*domain.Withdrawal
}

func (n *recordingNotifier) PurchaseReviewed(_ context.Context, p *domain.Purchase, c *domain.Commission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviewed = append(n.reviewed, p)
	n.commissions = append(n.commissions, c)
}

func (n *recordingNotifier) WithdrawalRequested(_ context.Context, w *domain.Withdrawal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = append(n.requested, w)
}

func (n *recordingNotifier) WithdrawalProcessed(_ context.Context, w *domain.Withdrawal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.processed = append(n.processed, w)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
