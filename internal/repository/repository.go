// Package repository declares the persistence contract shared by the
// postgres store and the in-memory store.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
)

// AccountStore owns account identity, referral linkage and balance counters.
// Balance counters change only through AdjustBalances.
type AccountStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	GetAccountByPhone(ctx context.Context, phone string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	// AdjustBalances applies delta as one atomic increment on the stored row.
	AdjustBalances(ctx context.Context, id uuid.UUID, delta domain.BalanceDelta) error
	IncrementReferrals(ctx context.Context, id uuid.UUID) error
	SetChallengeEnrollment(ctx context.Context, id uuid.UUID, enrolled bool, startDate time.Time) error
	SetCurrentChallengeDay(ctx context.Context, id uuid.UUID, day int) error
	// ListAccounts returns one page, newest first, and the total account count.
	ListAccounts(ctx context.Context, offset, limit int) ([]domain.Account, int, error)
	// DeleteAccount removes the account together with its challenges and
	// check-ins. It fails with domain.ErrAccountHasLedger while purchases,
	// commissions or withdrawals still reference the account.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type PurchaseStore interface {
	GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	CreatePurchase(ctx context.Context, purchase *domain.Purchase) error
	// ReviewPurchase moves a pending purchase to a terminal status. It fails with
	// domain.ErrPurchaseNotPending when the purchase was already reviewed.
	ReviewPurchase(ctx context.Context, id uuid.UUID, review domain.PurchaseReview) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, status domain.PurchaseStatus, limit int) ([]domain.Purchase, error)
}

type CommissionStore interface {
	CreateCommission(ctx context.Context, commission *domain.Commission) error
	ListCommissionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Commission, error)
}

type WithdrawalStore interface {
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) error
	// DecideWithdrawal moves a pending request to a terminal status. It fails
	// with domain.ErrWithdrawalNotPending when the request was already processed.
	DecideWithdrawal(ctx context.Context, id uuid.UUID, decision domain.WithdrawalDecision) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error)
}

type ChallengeStore interface {
	GetChallenge(ctx context.Context, id uuid.UUID) (*domain.Challenge, error)
	// GetChallengeForUpdate reads the challenge and locks it until the
	// enclosing transaction ends.
	GetChallengeForUpdate(ctx context.Context, id uuid.UUID) (*domain.Challenge, error)
	GetActiveChallenge(ctx context.Context, userID uuid.UUID) (*domain.Challenge, error)
	CreateChallenge(ctx context.Context, challenge *domain.Challenge) error
	// UpsertTask stores the task for (day, timeslot), replacing an existing one.
	UpsertTask(ctx context.Context, challengeID uuid.UUID, task domain.CompletedTask) error
	SetChallengeDay(ctx context.Context, id uuid.UUID, currentDay int) error
	SetChallengeStreak(ctx context.Context, id uuid.UUID, streakDays int) error
	// ListActiveChallenges returns active challenges without their tasks.
	ListActiveChallenges(ctx context.Context) ([]domain.Challenge, error)
}

type CheckinStore interface {
	// UpsertDailyCheckin stores the check-in for (user, day), replacing an
	// existing one. It reports whether a new check-in was created.
	UpsertDailyCheckin(ctx context.Context, checkin *domain.DailyCheckin) (bool, error)
	// ListDailyCheckins returns the user's check-ins ordered by day.
	ListDailyCheckins(ctx context.Context, userID uuid.UUID) ([]domain.DailyCheckin, error)
}

type Store interface {
	AccountStore
	PurchaseStore
	CommissionStore
	WithdrawalStore
	ChallengeStore
	CheckinStore

	// InTx runs fn against a transactional view of the store. Writes made
	// through tx become visible together when fn returns nil, and are
	// discarded otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
