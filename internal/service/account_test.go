package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referralCodePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func newAccountFixture(t *testing.T) (*memory.Store, *AccountService) {
	t.Helper()
	store := memory.New()
	svc := NewAccountService(store)
	svc.now = fixedClock
	return store, svc
}

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		code, err := generateReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, referralCodePattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestRegister(t *testing.T) {
	_, svc := newAccountFixture(t)

	a, err := svc.Register(context.Background(), RegisterInput{
		Name:        " Sari ",
		PhoneNumber: "+628111111111",
		Email:       "sari@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sari", a.Name)
	assert.Equal(t, domain.RoleUser, a.Role)
	assert.Regexp(t, referralCodePattern, a.ReferralCode)
	assert.Nil(t, a.ReferredByID)
	assert.True(t, a.IsActive)
	assert.True(t, a.BalanceConsistent())
}

func TestRegister_Validation(t *testing.T) {
	_, svc := newAccountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{PhoneNumber: "+628111111111"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "Sari"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	_, svc := newAccountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Sari", PhoneNumber: "+628111111111"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", PhoneNumber: "+628111111111"})
	assert.ErrorIs(t, err, domain.ErrAccountExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_WithReferral(t *testing.T) {
	store, svc := newAccountFixture(t)
	ctx := context.Background()

	referrer, err := svc.Register(ctx, RegisterInput{Name: "Referrer", PhoneNumber: "+628111111111"})
	require.NoError(t, err)

	a, err := svc.Register(ctx, RegisterInput{
		Name:         "Friend",
		PhoneNumber:  "+628222222222",
		ReferralCode: " " + strings.ToLower(referrer.ReferralCode) + " ",
	})
	require.NoError(t, err)
	require.NotNil(t, a.ReferredByID)
	assert.Equal(t, referrer.ID, *a.ReferredByID)

	assert.Equal(t, 1, reload(t, store, referrer.ID).TotalReferrals)
}

func TestRegister_UnknownReferral(t *testing.T) {
	store, svc := newAccountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Name:         "Friend",
		PhoneNumber:  "+628222222222",
		ReferralCode: "NOPE0000",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReferral)

	_, err = store.GetAccountByPhone(ctx, "+628222222222")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestFindOrCreate(t *testing.T) {
	_, svc := newAccountFixture(t)
	ctx := context.Background()

	a, created, err := svc.FindOrCreate(ctx, "+628333333333", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "+628333333333", a.Name)

	again, created, err := svc.FindOrCreate(ctx, "+628333333333", "Budi")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)

	_, _, err = svc.FindOrCreate(ctx, "  ", "Budi")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOverview(t *testing.T) {
	store, svc := newAccountFixture(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterInput{Name: "Sari", PhoneNumber: "+628111111111"})
	require.NoError(t, err)
	require.NoError(t, store.AdjustBalances(ctx, a.ID, domain.BalanceDelta{Pending: dec("40"), Total: dec("100"), Withdrawn: dec("60")}))
	require.NoError(t, store.SetChallengeEnrollment(ctx, a.ID, true, testNow))
	require.NoError(t, store.SetCurrentChallengeDay(ctx, a.ID, 4))

	ov, err := svc.Overview(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, ov.Account.ID)
	assert.True(t, ov.Challenge.Enrolled)
	assert.Equal(t, 4, ov.Challenge.CurrentDay)
	assert.Equal(t, 30, ov.Challenge.TotalDays)
	assertDecimal(t, "40", ov.Financial.CommissionPending)
	assertDecimal(t, "60", ov.Financial.CommissionWithdrawn)
	assertDecimal(t, "100", ov.Financial.TotalCommission)
	assert.Equal(t, a.ReferralCode, ov.Financial.ReferralCode)

	_, err = svc.Overview(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestListAccounts(t *testing.T) {
	store, svc := newAccountFixture(t)
	ctx := context.Background()
	referrer := seedAccount(t, store, "+620000000001", nil)
	seedAccount(t, store, "+620000000002", &referrer.ID)
	seedAccount(t, store, "+620000000003", &referrer.ID)

	page, err := svc.ListAccounts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 50, page.Limit)
	assert.Len(t, page.Accounts, 3)

	page, err = svc.ListAccounts(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Skip)
	assert.Len(t, page.Accounts, 1)

	page, err = svc.ListAccounts(ctx, 0, 10_000)
	require.NoError(t, err)
	assert.Equal(t, 500, page.Limit)

	_, err = svc.ListAccounts(ctx, -1, 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteAccount(t *testing.T) {
	store, svc := newAccountFixture(t)
	ctx := context.Background()
	a := seedAccount(t, store, "+620000000001", nil)
	admin := uuid.New()

	require.NoError(t, svc.DeleteAccount(ctx, a.ID, admin))
	_, err := svc.GetAccount(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, a.ID, admin), domain.ErrAccountNotFound)
}

func TestDeleteAccount_WithPurchases(t *testing.T) {
	store, svc := newAccountFixture(t)
	ctx := context.Background()
	a := seedAccount(t, store, "+620000000001", nil)
	ledger := NewLedgerService(store, nil)
	_, err := ledger.RecordPurchase(ctx, a.ID, "p", "Product", dec("10"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, a.ID, uuid.New()), domain.ErrAccountHasLedger)
	_, err = svc.GetAccount(ctx, a.ID)
	assert.NoError(t, err)
}
