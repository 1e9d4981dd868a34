package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/metrics"
	"github.com/set-night/healthchallenge/internal/repository"
	"github.com/shopspring/decimal"
)

type LedgerService struct {
	store    repository.Store
	notifier Notifier
	now      func() time.Time
}

func NewLedgerService(store repository.Store, notifier Notifier) *LedgerService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LedgerService{store: store, notifier: notifier, now: time.Now}
}

type PurchaseOutcome struct {
	PurchaseID uuid.UUID
	Status     domain.PurchaseStatus
	// Commission is set only when an approved purchase paid out a referrer.
	Commission *domain.Commission
}

type WithdrawalOutcome struct {
	WithdrawalID uuid.UUID
	UserID       uuid.UUID
	Status       domain.WithdrawalStatus
	// Moved is the amount reclassified from pending to withdrawn.
	Moved decimal.Decimal
}

// CommissionFor returns the referral payout owed for a purchase amount.
func CommissionFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(config.CommissionRate).Round(config.AmountScale)
}

// validAmount accepts positive amounts the store can hold without rounding.
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(config.AmountScale))
}

// RecordPurchase stores a captured payment awaiting admin verification.
func (s *LedgerService) RecordPurchase(ctx context.Context, userID uuid.UUID, productID, productName string, amount decimal.Decimal, paymentProof string) (*domain.Purchase, error) {
	if !validAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}
	if productID == "" || productName == "" {
		return nil, fmt.Errorf("product: %w", domain.ErrMissingField)
	}
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return nil, err
	}

	p := &domain.Purchase{
		ID:           uuid.New(),
		UserID:       userID,
		ProductID:    productID,
		ProductName:  productName,
		Amount:       amount,
		Status:       domain.PurchaseStatusPending,
		PaymentProof: paymentProof,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreatePurchase(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("purchase recorded", "purchase_id", p.ID, "user_id", userID, "amount", amount.String())
	return p, nil
}

// VerifyPurchase moves a pending purchase to verified or cancelled. An
// approved purchase whose buyer was referred credits the referrer with a
// commission; the status change, the commission record and the balance
// increments commit together.
func (s *LedgerService) VerifyPurchase(ctx context.Context, purchaseID uuid.UUID, approve bool, adminID uuid.UUID) (*PurchaseOutcome, error) {
	review := domain.PurchaseReview{
		Status:     domain.PurchaseStatusCancelled,
		VerifiedBy: adminID,
		VerifiedAt: s.now(),
	}
	if approve {
		review.Status = domain.PurchaseStatusVerified
	}

	var (
		purchase   *domain.Purchase
		commission *domain.Commission
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		p, err := tx.ReviewPurchase(ctx, purchaseID, review)
		if err != nil {
			return err
		}
		purchase = p

		if !approve {
			return nil
		}

		c, err := s.settleApprovedPurchase(ctx, tx, p, review.VerifiedAt)
		if err != nil {
			return err
		}
		commission = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PurchasesReviewed.WithLabelValues(string(purchase.Status)).Inc()
	if commission != nil {
		metrics.CommissionsCreated.Inc()
		metrics.CommissionAmount.Add(commission.Amount.InexactFloat64())
	}

	slog.Info("purchase reviewed",
		"purchase_id", purchase.ID,
		"status", purchase.Status,
		"admin_id", adminID,
		"commission", commission != nil,
	)
	s.notifier.PurchaseReviewed(ctx, purchase, commission)

	return &PurchaseOutcome{
		PurchaseID: purchase.ID,
		Status:     purchase.Status,
		Commission: commission,
	}, nil
}

// settleApprovedPurchase runs inside the verification transaction.
func (s *LedgerService) settleApprovedPurchase(ctx context.Context, tx repository.Store, p *domain.Purchase, at time.Time) (*domain.Commission, error) {
	buyer, err := tx.GetAccount(ctx, p.UserID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		slog.Warn("verified purchase has no buyer account", "purchase_id", p.ID, "user_id", p.UserID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.AdjustBalances(ctx, buyer.ID, domain.BalanceDelta{Purchases: p.Amount}); err != nil {
		return nil, fmt.Errorf("record buyer purchase total: %w", err)
	}

	if buyer.ReferredByID == nil {
		return nil, nil
	}

	// referred_by is a weak reference; a vanished referrer earns nothing.
	referrer, err := tx.GetAccount(ctx, *buyer.ReferredByID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		slog.Warn("referrer account missing, skipping commission",
			"purchase_id", p.ID, "referrer_id", *buyer.ReferredByID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	amount := CommissionFor(p.Amount)
	c := &domain.Commission{
		ID:         uuid.New(),
		UserID:     referrer.ID,
		FromUserID: buyer.ID,
		PurchaseID: p.ID,
		Amount:     amount,
		Status:     domain.CommissionStatusApproved,
		CreatedAt:  at,
	}
	if err := tx.CreateCommission(ctx, c); err != nil {
		return nil, fmt.Errorf("create commission: %w", err)
	}

	if err := tx.AdjustBalances(ctx, referrer.ID, domain.BalanceDelta{Pending: amount, Total: amount}); err != nil {
		return nil, fmt.Errorf("credit referrer: %w", err)
	}

	return c, nil
}

// RequestWithdrawal files a payout request against the pending commission
// balance. The balance is checked here but only moved when the request is
// processed, so concurrent requests may together exceed it.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, payout domain.PayoutDetails) (*domain.Withdrawal, error) {
	if !validAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}
	if err := payout.Validate(); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(account.CommissionPending) {
		return nil, domain.ErrInsufficientBalance
	}

	w := &domain.Withdrawal{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Payout:    payout,
		Status:    domain.WithdrawalStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateWithdrawal(ctx, w); err != nil {
		return nil, err
	}

	metrics.WithdrawalsRequested.Inc()
	slog.Info("withdrawal requested", "withdrawal_id", w.ID, "user_id", userID, "amount", amount.String())
	s.notifier.WithdrawalRequested(ctx, w)

	return w, nil
}

// ProcessWithdrawal pays or rejects a pending request. Paying moves the
// amount from pending to withdrawn in the same transaction as the status
// change; total commission is untouched.
func (s *LedgerService) ProcessWithdrawal(ctx context.Context, requestID uuid.UUID, approve bool, note string, adminID uuid.UUID) (*WithdrawalOutcome, error) {
	decision := domain.WithdrawalDecision{
		Status:      domain.WithdrawalStatusRejected,
		AdminNote:   note,
		ProcessedBy: adminID,
		ProcessedAt: s.now(),
	}
	if approve {
		decision.Status = domain.WithdrawalStatusPaid
	}

	var withdrawal *domain.Withdrawal
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		w, err := tx.DecideWithdrawal(ctx, requestID, decision)
		if err != nil {
			return err
		}
		withdrawal = w

		if !approve {
			return nil
		}
		delta := domain.BalanceDelta{Pending: w.Amount.Neg(), Withdrawn: w.Amount}
		if err := tx.AdjustBalances(ctx, w.UserID, delta); err != nil {
			return fmt.Errorf("move withdrawn balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := &WithdrawalOutcome{
		WithdrawalID: withdrawal.ID,
		UserID:       withdrawal.UserID,
		Status:       withdrawal.Status,
		Moved:        decimal.Zero,
	}
	if approve {
		outcome.Moved = withdrawal.Amount
	}

	metrics.WithdrawalsProcessed.WithLabelValues(string(withdrawal.Status)).Inc()
	slog.Info("withdrawal processed",
		"withdrawal_id", withdrawal.ID,
		"status", withdrawal.Status,
		"admin_id", adminID,
		"amount", withdrawal.Amount.String(),
	)
	s.notifier.WithdrawalProcessed(ctx, withdrawal)

	return outcome, nil
}

func (s *LedgerService) ListPurchases(ctx context.Context, status domain.PurchaseStatus, limit int) ([]domain.Purchase, error) {
	return s.store.ListPurchases(ctx, status, normalizeLimit(limit))
}

func (s *LedgerService) ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	return s.store.ListWithdrawals(ctx, status, normalizeLimit(limit))
}

func (s *LedgerService) ListCommissions(ctx context.Context, userID uuid.UUID) ([]domain.Commission, error) {
	return s.store.ListCommissionsByUser(ctx, userID)
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return config.DefaultListLimit
	case limit > config.MaxListLimit:
		return config.MaxListLimit
	default:
		return limit
	}
}
