package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/middleware"
	"github.com/set-night/healthchallenge/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	cfg              *config.Config
	accountService   *service.AccountService
	ledgerService    *service.LedgerService
	challengeService *service.ChallengeService
	healthService    *service.HealthService
	store            Pinger
	rateLimiter      *middleware.RateLimiter
	errorReporter    middleware.ErrorReporter
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg              *config.Config
	AccountService   *service.AccountService
	LedgerService    *service.LedgerService
	ChallengeService *service.ChallengeService
	HealthService    *service.HealthService
	Store            Pinger
	RateLimiter      *middleware.RateLimiter
	// ErrorReporter is optional.
	ErrorReporter middleware.ErrorReporter
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:              deps.Cfg,
		accountService:   deps.AccountService,
		ledgerService:    deps.LedgerService,
		challengeService: deps.ChallengeService,
		healthService:    deps.HealthService,
		store:            deps.Store,
		rateLimiter:      deps.RateLimiter,
		errorReporter:    deps.ErrorReporter,
	}
}

// Routes builds the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging())
	r.Use(middleware.Recover(h.errorReporter))

	r.Get("/api/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if h.rateLimiter != nil {
			r.Use(h.rateLimiter.Handler)
		}
		r.Post("/api/auth/register", h.Register)
		r.Post("/api/challenge/enroll", h.Enroll)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth([]byte(h.cfg.JWTSecret)))
		if h.rateLimiter != nil {
			r.Use(h.rateLimiter.Handler)
		}

		r.Get("/api/challenge/progress/{userID}", h.ProgressForUser)
		r.Get("/api/challenges/{id}/progress", h.Progress)
		r.Post("/api/challenges/{id}/checkin", h.CheckIn)

		r.Route("/api/dashboard/user", func(r chi.Router) {
			r.Get("/overview", h.Overview)
			r.Get("/commissions", h.Commissions)
			r.Post("/purchases", h.RecordPurchase)
			r.Post("/withdrawal", h.RequestWithdrawal)
			r.Post("/checkin", h.SubmitDailyCheckin)
			r.Get("/health-report", h.HealthReport)
		})

		r.Route("/api/dashboard/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/purchases", h.ListPurchases)
			r.Put("/purchases/{id}/verify", h.VerifyPurchase)
			r.Get("/withdrawals", h.ListWithdrawals)
			r.Put("/withdrawals/{id}", h.ProcessWithdrawal)
			r.Get("/users", h.ListUsers)
			r.With(middleware.RequireSuperAdmin).Delete("/users/{id}", h.DeleteUser)
		})
	})

	return r
}
