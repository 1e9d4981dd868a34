package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusVerified  PurchaseStatus = "verified"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

func ParsePurchaseStatus(s string) (PurchaseStatus, error) {
	switch st := PurchaseStatus(s); st {
	case PurchaseStatusPending, PurchaseStatusVerified, PurchaseStatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseStatusVerified || s == PurchaseStatusCancelled
}

type Purchase struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ProductID    string
	ProductName  string
	Amount       decimal.Decimal
	Status       PurchaseStatus
	PaymentProof string
	VerifiedBy   *uuid.UUID
	VerifiedAt   *time.Time
	CreatedAt    time.Time
}

// PurchaseReview is written when a pending purchase is verified or cancelled.
type PurchaseReview struct {
	Status     PurchaseStatus
	VerifiedBy uuid.UUID
	VerifiedAt time.Time
}
