package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommissionStatus string

// Commissions are created already approved and never change afterwards.
const CommissionStatusApproved CommissionStatus = "approved"

type Commission struct {
	ID         uuid.UUID
	UserID     uuid.UUID // referrer receiving the payout
	FromUserID uuid.UUID // purchaser
	PurchaseID uuid.UUID
	Amount     decimal.Decimal
	Status     CommissionStatus
	CreatedAt  time.Time
}
