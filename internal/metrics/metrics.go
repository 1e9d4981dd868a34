package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PurchasesReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_purchases_reviewed_total",
			Help: "Purchases moved out of pending, by resulting status",
		},
		[]string{"status"},
	)

	CommissionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_commissions_created_total",
			Help: "Referral commissions credited",
		},
	)

	CommissionAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_commission_amount_total",
			Help: "Sum of referral commissions credited",
		},
	)

	WithdrawalsRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_withdrawals_requested_total",
			Help: "Withdrawal requests created",
		},
	)

	WithdrawalsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_withdrawals_processed_total",
			Help: "Withdrawal requests processed, by resulting status",
		},
		[]string{"status"},
	)

	ChallengeEnrollments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_enrollments_total",
			Help: "Enrollment calls, by whether a challenge was created",
		},
		[]string{"result"},
	)

	ChallengeCheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_checkins_total",
			Help: "Check-ins, by timeslot",
		},
		[]string{"timeslot"},
	)

	ChallengeDaysSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_days_synced_total",
			Help: "Cached challenge days refreshed by the sync job",
		},
	)

	DailyCheckins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_daily_checkins_total",
			Help: "Daily wellbeing check-ins, by whether they were created or replaced",
		},
		[]string{"result"},
	)
)
