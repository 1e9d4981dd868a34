package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/repository"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	store repository.Store
	now   func() time.Time
}

func NewAccountService(store repository.Store) *AccountService {
	return &AccountService{store: store, now: time.Now}
}

type RegisterInput struct {
	Name         string
	PhoneNumber  string
	Email        string
	HealthType   string
	ReferralCode string
}

// Register creates an account, crediting the referrer's referral count when
// a known code is given. An unknown code fails the registration.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if in.Name == "" {
		return nil, fmt.Errorf("name: %w", domain.ErrMissingField)
	}
	if in.PhoneNumber == "" {
		return nil, fmt.Errorf("phone number: %w", domain.ErrMissingField)
	}

	var account *domain.Account
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetAccountByPhone(ctx, in.PhoneNumber); err == nil {
			return domain.ErrAccountExists
		} else if !errors.Is(err, domain.ErrAccountNotFound) {
			return err
		}

		var referredBy *uuid.UUID
		if code := strings.TrimSpace(in.ReferralCode); code != "" {
			referrer, err := tx.GetAccountByReferralCode(ctx, code)
			if errors.Is(err, domain.ErrAccountNotFound) {
				return domain.ErrInvalidReferral
			}
			if err != nil {
				return err
			}
			referredBy = &referrer.ID
		}

		a, err := s.create(ctx, tx, in, referredBy)
		if err != nil {
			return err
		}
		if referredBy != nil {
			if err := tx.IncrementReferrals(ctx, *referredBy); err != nil {
				return fmt.Errorf("increment referrals: %w", err)
			}
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("account registered", "user_id", account.ID, "referred_by", account.ReferredByID)
	return account, nil
}

// FindOrCreate returns the account registered under phone, creating a
// minimal one on first contact.
func (s *AccountService) FindOrCreate(ctx context.Context, phone, name string) (*domain.Account, bool, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, false, fmt.Errorf("phone number: %w", domain.ErrMissingField)
	}

	a, err := s.store.GetAccountByPhone(ctx, phone)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, false, err
	}

	if strings.TrimSpace(name) == "" {
		name = phone
	}
	a, err = s.create(ctx, s.store, RegisterInput{Name: name, PhoneNumber: phone}, nil)
	if errors.Is(err, domain.ErrAccountExists) {
		existing, err := s.store.GetAccountByPhone(ctx, phone)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}

	slog.Info("account created on first contact", "user_id", a.ID)
	return a, true, nil
}

// create retries on a referral code collision that slipped past the
// uniqueness check.
func (s *AccountService) create(ctx context.Context, store repository.AccountStore, in RegisterInput, referredBy *uuid.UUID) (*domain.Account, error) {
	for attempt := 0; ; attempt++ {
		code, err := generateUniqueReferralCode(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}

		now := s.now()
		a := &domain.Account{
			ID:                  uuid.New(),
			Name:                in.Name,
			PhoneNumber:         in.PhoneNumber,
			Email:               strings.TrimSpace(in.Email),
			Role:                domain.RoleUser,
			HealthType:          in.HealthType,
			ReferralCode:        code,
			ReferredByID:        referredBy,
			CommissionPending:   decimal.Zero,
			CommissionWithdrawn: decimal.Zero,
			TotalCommission:     decimal.Zero,
			TotalPurchases:      decimal.Zero,
			IsActive:            true,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		err = store.CreateAccount(ctx, a)
		if errors.Is(err, domain.ErrReferralCodeTaken) && attempt < config.ReferralCodeAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.store.GetAccount(ctx, id)
}

type AccountPage struct {
	Accounts []domain.Account
	Total    int
	Skip     int
	Limit    int
}

// ListAccounts pages through all accounts, newest first.
func (s *AccountService) ListAccounts(ctx context.Context, skip, limit int) (*AccountPage, error) {
	if skip < 0 {
		return nil, fmt.Errorf("skip: %w", domain.ErrValidation)
	}
	switch {
	case limit <= 0:
		limit = config.DefaultUserPageSize
	case limit > config.MaxListLimit:
		limit = config.MaxListLimit
	}

	accounts, total, err := s.store.ListAccounts(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	return &AccountPage{Accounts: accounts, Total: total, Skip: skip, Limit: limit}, nil
}

// DeleteAccount removes an account that has no ledger history.
func (s *AccountService) DeleteAccount(ctx context.Context, id, actorID uuid.UUID) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	slog.Info("account deleted", "user_id", id, "deleted_by", actorID)
	return nil
}

type ChallengeSummary struct {
	Enrolled   bool
	StartDate  *time.Time
	CurrentDay int
	TotalDays  int
}

type FinancialSummary struct {
	CommissionPending   decimal.Decimal
	CommissionWithdrawn decimal.Decimal
	TotalCommission     decimal.Decimal
	TotalPurchases      decimal.Decimal
	TotalReferrals      int
	ReferralCode        string
}

type Overview struct {
	Account   *domain.Account
	Challenge ChallengeSummary
	Financial FinancialSummary
}

// Overview reads the cached challenge day; it does not recompute it.
func (s *AccountService) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	a, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Account: a,
		Challenge: ChallengeSummary{
			Enrolled:   a.ChallengeEnrolled,
			StartDate:  a.ChallengeStartDate,
			CurrentDay: a.CurrentChallengeDay,
			TotalDays:  config.ChallengeDays,
		},
		Financial: FinancialSummary{
			CommissionPending:   a.CommissionPending,
			CommissionWithdrawn: a.CommissionWithdrawn,
			TotalCommission:     a.TotalCommission,
			TotalPurchases:      a.TotalPurchases,
			TotalReferrals:      a.TotalReferrals,
			ReferralCode:        a.ReferralCode,
		},
	}, nil
}
