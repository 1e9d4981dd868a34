package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Account struct {
	ID           uuid.UUID
	Name         string
	PhoneNumber  string
	Email        string
	Role         Role
	HealthType   string
	ReferralCode string
	ReferredByID *uuid.UUID

	TotalReferrals      int
	CommissionPending   decimal.Decimal
	CommissionWithdrawn decimal.Decimal
	TotalCommission     decimal.Decimal
	TotalPurchases      decimal.Decimal

	ChallengeEnrolled   bool
	ChallengeStartDate  *time.Time
	CurrentChallengeDay int

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BalanceConsistent reports whether total commission equals pending plus withdrawn.
func (a *Account) BalanceConsistent() bool {
	return a.TotalCommission.Equal(a.CommissionPending.Add(a.CommissionWithdrawn))
}

// BalanceDelta is applied to an account's counters as a single atomic increment.
// Zero fields leave the matching counter untouched.
type BalanceDelta struct {
	Pending   decimal.Decimal
	Total     decimal.Decimal
	Withdrawn decimal.Decimal
	Purchases decimal.Decimal
}

func (d BalanceDelta) IsZero() bool {
	return d.Pending.IsZero() && d.Total.IsZero() && d.Withdrawn.IsZero() && d.Purchases.IsZero()
}
