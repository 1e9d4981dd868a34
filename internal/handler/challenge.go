package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/service"
)

type enrollRequest struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
	// StartDate is optional; enrollment starts now when omitted.
	StartDate *time.Time `json:"start_date"`
}

type challengeResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Status     string    `json:"status"`
	StartDate  time.Time `json:"start_date"`
	CurrentDay int       `json:"current_day"`
	StreakDays int       `json:"streak_days"`
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, _, err := h.accountService.FindOrCreate(r.Context(), req.PhoneNumber, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var start time.Time
	if req.StartDate != nil {
		start = *req.StartDate
	}
	c, err := h.challengeService.Enroll(r.Context(), account.ID, start)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		Status:     string(c.Status),
		StartDate:  c.StartDate,
		CurrentDay: c.CurrentDay,
		StreakDays: c.StreakDays,
	})
}

type taskResponse struct {
	Day       int    `json:"day"`
	Timeslot  string `json:"timeslot"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

type progressResponse struct {
	ChallengeID    uuid.UUID     `json:"challenge_id"`
	CurrentDay     int           `json:"current_day"`
	CompletedTasks int           `json:"completed_tasks"`
	TotalTasks     int           `json:"total_tasks"`
	StreakDays     int           `json:"streak_days"`
	NextTask       *taskResponse `json:"next_task"`
}

func toProgressResponse(v *service.ProgressView) progressResponse {
	resp := progressResponse{
		ChallengeID:    v.ChallengeID,
		CurrentDay:     v.CurrentDay,
		CompletedTasks: v.CompletedTasks,
		TotalTasks:     v.TotalTasks,
		StreakDays:     v.StreakDays,
	}
	if v.NextTask != nil {
		resp.NextTask = &taskResponse{
			Day:       v.NextTask.Day,
			Timeslot:  string(v.NextTask.Timeslot),
			Task:      v.NextTask.Label,
			Completed: v.NextTask.Completed,
		}
	}
	return resp
}

func (h *Handler) ProgressForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := authorizeUser(r, userID); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := h.challengeService.GetProgressForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(v))
}

// ownedChallenge resolves the {id} challenge and checks the caller may act
// on it.
func (h *Handler) ownedChallenge(r *http.Request) (*domain.Challenge, error) {
	id, err := uuidParam(r, "id")
	if err != nil {
		return nil, err
	}
	c, err := h.challengeService.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeUser(r, c.UserID); err != nil {
		return nil, err
	}
	return c, nil
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	c, err := h.ownedChallenge(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	v, err := h.challengeService.GetProgress(r.Context(), c.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(v))
}

type checkInRequest struct {
	Day       int    `json:"day"`
	Timeslot  string `json:"timeslot"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes"`
}

// StreakDays is set on every completed check-in, including a zero streak.
type checkInResponse struct {
	Success    bool   `json:"success"`
	StreakDays *int   `json:"streak_days,omitempty"`
	NextTask   string `json:"next_task,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	c, err := h.ownedChallenge(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req checkInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	slot, err := domain.ParseTimeslot(req.Timeslot)
	if err != nil {
		writeError(w, r, fmt.Errorf("timeslot %q: %w", req.Timeslot, err))
		return
	}

	out, err := h.challengeService.CheckIn(r.Context(), c.ID, req.Day, slot, req.Completed, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := checkInResponse{
		Success:  out.Completed,
		NextTask: out.NextTask,
		Message:  out.Message,
	}
	if out.Completed {
		resp.StreakDays = &out.StreakDays
	}
	writeJSON(w, http.StatusOK, resp)
}
