package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

func ParseWithdrawalStatus(s string) (WithdrawalStatus, error) {
	switch st := WithdrawalStatus(s); st {
	case WithdrawalStatusPending, WithdrawalStatusPaid, WithdrawalStatusRejected:
		return st, nil
	}
	return "", ErrInvalidStatus
}

type PayoutDetails struct {
	BankName      string
	AccountNumber string
	AccountName   string
}

func (p PayoutDetails) Validate() error {
	if strings.TrimSpace(p.BankName) == "" ||
		strings.TrimSpace(p.AccountNumber) == "" ||
		strings.TrimSpace(p.AccountName) == "" {
		return ErrMissingPayout
	}
	return nil
}

type Withdrawal struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Payout      PayoutDetails
	Status      WithdrawalStatus
	AdminNote   string
	ProcessedBy *uuid.UUID
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// WithdrawalDecision is written when a pending request is paid or rejected.
type WithdrawalDecision struct {
	Status      WithdrawalStatus
	AdminNote   string
	ProcessedBy uuid.UUID
	ProcessedAt time.Time
}
