package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/middleware"
	"github.com/set-night/healthchallenge/internal/service"
	"github.com/shopspring/decimal"
)

type registerRequest struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number"`
	Email        string `json:"email"`
	HealthType   string `json:"health_type"`
	ReferralCode string `json:"referral_code"`
}

type accountResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	PhoneNumber    string     `json:"phone_number"`
	Email          string     `json:"email,omitempty"`
	Role           string     `json:"role"`
	HealthType     string     `json:"health_type,omitempty"`
	ReferralCode   string     `json:"referral_code"`
	ReferredByID   *uuid.UUID `json:"referred_by,omitempty"`
	TotalReferrals int        `json:"total_referrals"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		PhoneNumber:    a.PhoneNumber,
		Email:          a.Email,
		Role:           string(a.Role),
		HealthType:     a.HealthType,
		ReferralCode:   a.ReferralCode,
		ReferredByID:   a.ReferredByID,
		TotalReferrals: a.TotalReferrals,
		CreatedAt:      a.CreatedAt,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.accountService.Register(r.Context(), service.RegisterInput{
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		HealthType:   req.HealthType,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(a))
}

type overviewResponse struct {
	Profile   accountResponse `json:"profile"`
	Challenge struct {
		Enrolled   bool       `json:"enrolled"`
		StartDate  *time.Time `json:"start_date,omitempty"`
		CurrentDay int        `json:"current_day"`
		TotalDays  int        `json:"total_days"`
	} `json:"challenge"`
	Financial struct {
		CommissionPending   decimal.Decimal `json:"commission_pending"`
		CommissionWithdrawn decimal.Decimal `json:"commission_withdrawn"`
		TotalCommission     decimal.Decimal `json:"total_commission"`
		TotalPurchases      decimal.Decimal `json:"total_purchases"`
		TotalReferrals      int             `json:"total_referrals"`
		ReferralCode        string          `json:"referral_code"`
	} `json:"financial"`
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r.Context())
	ov, err := h.accountService.Overview(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var resp overviewResponse
	resp.Profile = toAccountResponse(ov.Account)
	resp.Challenge.Enrolled = ov.Challenge.Enrolled
	resp.Challenge.StartDate = ov.Challenge.StartDate
	resp.Challenge.CurrentDay = ov.Challenge.CurrentDay
	resp.Challenge.TotalDays = ov.Challenge.TotalDays
	resp.Financial.CommissionPending = ov.Financial.CommissionPending
	resp.Financial.CommissionWithdrawn = ov.Financial.CommissionWithdrawn
	resp.Financial.TotalCommission = ov.Financial.TotalCommission
	resp.Financial.TotalPurchases = ov.Financial.TotalPurchases
	resp.Financial.TotalReferrals = ov.Financial.TotalReferrals
	resp.Financial.ReferralCode = ov.Financial.ReferralCode
	writeJSON(w, http.StatusOK, resp)
}

type adminUserResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	PhoneNumber       string          `json:"phone_number"`
	Role              string          `json:"role"`
	ChallengeEnrolled bool            `json:"challenge_enrolled"`
	TotalReferrals    int             `json:"total_referrals"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
}

type userPageResponse struct {
	Users []adminUserResponse `json:"users"`
	Total int                 `json:"total"`
	Skip  int                 `json:"skip"`
	Limit int                 `json:"limit"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, err := intQuery(r, "skip")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.accountService.ListAccounts(r.Context(), skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := userPageResponse{
		Users: make([]adminUserResponse, 0, len(page.Accounts)),
		Total: page.Total,
		Skip:  page.Skip,
		Limit: page.Limit,
	}
	for _, a := range page.Accounts {
		resp.Users = append(resp.Users, adminUserResponse{
			ID:                a.ID,
			Name:              a.Name,
			PhoneNumber:       a.PhoneNumber,
			Role:              string(a.Role),
			ChallengeEnrolled: a.ChallengeEnrolled,
			TotalReferrals:    a.TotalReferrals,
			TotalCommission:   a.TotalCommission,
			IsActive:          a.IsActive,
			CreatedAt:         a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type deleteUserResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, _ := middleware.GetPrincipal(r.Context())
	if err := h.accountService.DeleteAccount(r.Context(), id, p.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteUserResponse{Success: true, Message: "User deleted"})
}
