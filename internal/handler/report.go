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

type dailyCheckinRequest struct {
	Day                  int      `json:"day"`
	ComfortLevel         int      `json:"comfort_level"`
	Symptoms             []string `json:"symptoms"`
	Notes                string   `json:"notes"`
	MorningTaskCompleted bool     `json:"morning_task_completed"`
	NoonTaskCompleted    bool     `json:"noon_task_completed"`
	EveningTaskCompleted bool     `json:"evening_task_completed"`
}

type dailyCheckinResponse struct {
	ID                   uuid.UUID `json:"id"`
	ChallengeID          uuid.UUID `json:"challenge_id"`
	Day                  int       `json:"day"`
	ComfortLevel         int       `json:"comfort_level"`
	Symptoms             []string  `json:"symptoms"`
	Notes                string    `json:"notes,omitempty"`
	MorningTaskCompleted bool      `json:"morning_task_completed"`
	NoonTaskCompleted    bool      `json:"noon_task_completed"`
	EveningTaskCompleted bool      `json:"evening_task_completed"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toDailyCheckinResponse(c *domain.DailyCheckin) *dailyCheckinResponse {
	symptoms := c.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	return &dailyCheckinResponse{
		ID:                   c.ID,
		ChallengeID:          c.ChallengeID,
		Day:                  c.Day,
		ComfortLevel:         c.ComfortLevel,
		Symptoms:             symptoms,
		Notes:                c.Notes,
		MorningTaskCompleted: c.MorningDone,
		NoonTaskCompleted:    c.NoonDone,
		EveningTaskCompleted: c.EveningDone,
		UpdatedAt:            c.UpdatedAt,
	}
}

type submitCheckinResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) SubmitDailyCheckin(w http.ResponseWriter, r *http.Request) {
	var req dailyCheckinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, _ := middleware.GetPrincipal(r.Context())
	_, created, err := h.healthService.SubmitCheckin(r.Context(), p.UserID, service.DailyCheckinInput{
		Day:          req.Day,
		ComfortLevel: req.ComfortLevel,
		Symptoms:     req.Symptoms,
		Notes:        req.Notes,
		MorningDone:  req.MorningTaskCompleted,
		NoonDone:     req.NoonTaskCompleted,
		EveningDone:  req.EveningTaskCompleted,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, submitCheckinResponse{Success: true, Message: "Check-in submitted"})
		return
	}
	writeJSON(w, http.StatusOK, submitCheckinResponse{Success: true, Message: "Check-in updated"})
}

type healthReportResponse struct {
	TotalDays      int                   `json:"total_days"`
	CompletionRate decimal.Decimal       `json:"completion_rate"`
	AverageComfort decimal.Decimal       `json:"average_comfort"`
	ComfortTrend   []int                 `json:"comfort_trend"`
	Achievements   []string              `json:"achievements"`
	LatestCheckin  *dailyCheckinResponse `json:"latest_checkin"`
}

func (h *Handler) HealthReport(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r.Context())
	report, err := h.healthService.Report(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := healthReportResponse{
		TotalDays:      report.TotalDays,
		CompletionRate: report.CompletionRate,
		AverageComfort: report.AverageComfort,
		ComfortTrend:   report.ComfortTrend,
		Achievements:   report.Achievements,
	}
	if report.Latest != nil {
		resp.LatestCheckin = toDailyCheckinResponse(report.Latest)
	}
	writeJSON(w, http.StatusOK, resp)
}
