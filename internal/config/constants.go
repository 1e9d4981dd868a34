package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral commission, as a fraction of the purchase amount.
var CommissionRate = decimal.NewFromFloat(0.10)

const (
	// Money precision for derived amounts
	AmountScale = 2

	// Challenge shape
	ChallengeDays    = 30
	TasksPerDay      = 3
	ChallengeTasks   = ChallengeDays * TasksPerDay
	ChallengeDayUnit = 24 * time.Hour

	// Daily check-in comfort scale
	MinComfortLevel = 1
	MaxComfortLevel = 10

	// Referral codes
	ReferralCodeLength   = 8
	ReferralCodeAttempts = 10

	// Admin queues
	DefaultListLimit = 100
	MaxListLimit     = 500

	// Admin user listing
	DefaultUserPageSize = 50

	// HTTP server
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 15 * time.Second

	// Outbound notification timeout
	NotifyTimeout = 10 * time.Second

	// Idle rate limiter eviction
	RateLimiterIdleTTL = 10 * time.Minute
)
