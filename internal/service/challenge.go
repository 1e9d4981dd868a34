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
)

type ChallengeService struct {
	store repository.Store
	now   func() time.Time
}

func NewChallengeService(store repository.Store) *ChallengeService {
	return &ChallengeService{store: store, now: time.Now}
}

type TaskDescriptor struct {
	Day       int
	Timeslot  domain.Timeslot
	Label     string
	Completed bool
}

type ProgressView struct {
	ChallengeID    uuid.UUID
	CurrentDay     int
	CompletedTasks int
	TotalTasks     int
	StreakDays     int
	// NextTask is nil once every slot of the current day is done.
	NextTask *TaskDescriptor
}

type CheckInOutcome struct {
	Completed  bool
	StreakDays int
	NextTask   string
	Message    string
}

// ChallengeDay returns the 1-based challenge day for now, capped at the
// challenge length.
func ChallengeDay(start, now time.Time) int {
	day := int(now.Sub(start)/config.ChallengeDayUnit) + 1
	if day < 1 {
		return 1
	}
	if day > config.ChallengeDays {
		return config.ChallengeDays
	}
	return day
}

// nextStreak advances the streak to day when it continues from, or repeats,
// the latest day completed before this check-in. Any other day leaves the
// streak as it was; a gap never shortens it.
func nextStreak(prevLastDay, streak, day int) int {
	if day == prevLastDay || day == prevLastDay+1 {
		return day
	}
	return streak
}

// nextTaskLabel names the task after (day, slot); evening rolls to the next
// day's morning.
func nextTaskLabel(day int, slot domain.Timeslot) string {
	next, wraps := slot.Next()
	if wraps {
		day++
	}
	return domain.TaskLabel(day, next)
}

// Enroll starts a challenge for the user, or returns the active one
// unchanged. Either way the account is flagged as enrolled.
func (s *ChallengeService) Enroll(ctx context.Context, userID uuid.UUID, startDate time.Time) (*domain.Challenge, error) {
	if startDate.IsZero() {
		startDate = s.now()
	}

	var (
		challenge *domain.Challenge
		created   bool
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetAccount(ctx, userID); err != nil {
			return err
		}

		existing, err := tx.GetActiveChallenge(ctx, userID)
		switch {
		case err == nil:
			challenge = existing
		case errors.Is(err, domain.ErrChallengeNotFound):
			now := s.now()
			challenge = &domain.Challenge{
				ID:         uuid.New(),
				UserID:     userID,
				Status:     domain.ChallengeStatusActive,
				StartDate:  startDate,
				CurrentDay: 1,
				StreakDays: 0,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.CreateChallenge(ctx, challenge); err != nil {
				return err
			}
			created = true
		default:
			return err
		}

		return tx.SetChallengeEnrollment(ctx, userID, true, challenge.StartDate)
	})
	if errors.Is(err, domain.ErrConflict) {
		// Lost a race with a concurrent enrollment; theirs is the active one.
		return s.store.GetActiveChallenge(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	result := "existing"
	if created {
		result = "created"
		slog.Info("challenge enrolled", "challenge_id", challenge.ID, "user_id", userID, "start_date", challenge.StartDate)
	}
	metrics.ChallengeEnrollments.WithLabelValues(result).Inc()

	return challenge, nil
}

func (s *ChallengeService) Get(ctx context.Context, challengeID uuid.UUID) (*domain.Challenge, error) {
	return s.store.GetChallenge(ctx, challengeID)
}

func (s *ChallengeService) ActiveChallenge(ctx context.Context, userID uuid.UUID) (*domain.Challenge, error) {
	return s.store.GetActiveChallenge(ctx, userID)
}

// GetProgress recomputes the current day and persists it when the cached
// value is stale, so it writes as well as reads.
func (s *ChallengeService) GetProgress(ctx context.Context, challengeID uuid.UUID) (*ProgressView, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.progress(ctx, c)
}

func (s *ChallengeService) GetProgressForUser(ctx context.Context, userID uuid.UUID) (*ProgressView, error) {
	c, err := s.store.GetActiveChallenge(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.progress(ctx, c)
}

func (s *ChallengeService) progress(ctx context.Context, c *domain.Challenge) (*ProgressView, error) {
	day := ChallengeDay(c.StartDate, s.now())
	if day != c.CurrentDay {
		if err := s.storeDay(ctx, c, day); err != nil {
			return nil, err
		}
	}

	view := &ProgressView{
		ChallengeID:    c.ID,
		CurrentDay:     day,
		CompletedTasks: len(c.CompletedTasks),
		TotalTasks:     config.ChallengeTasks,
		StreakDays:     c.StreakDays,
	}
	for _, slot := range domain.Timeslots {
		if !c.HasTask(day, slot) {
			view.NextTask = &TaskDescriptor{
				Day:      day,
				Timeslot: slot,
				Label:    domain.TaskLabel(day, slot),
			}
			break
		}
	}
	return view, nil
}

func (s *ChallengeService) storeDay(ctx context.Context, c *domain.Challenge, day int) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.SetChallengeDay(ctx, c.ID, day); err != nil {
			return fmt.Errorf("cache challenge day: %w", err)
		}
		if err := tx.SetCurrentChallengeDay(ctx, c.UserID, day); err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("cache account challenge day: %w", err)
		}
		return nil
	})
}

// CheckIn records a completed task for (day, slot), replacing any earlier
// record for the same pair, and advances the streak.
func (s *ChallengeService) CheckIn(ctx context.Context, challengeID uuid.UUID, day int, slot domain.Timeslot, completed bool, note string) (*CheckInOutcome, error) {
	if day < 1 || day > config.ChallengeDays {
		return nil, domain.ErrInvalidDay
	}
	if _, err := domain.ParseTimeslot(string(slot)); err != nil {
		return nil, err
	}

	if !completed {
		if _, err := s.store.GetChallenge(ctx, challengeID); err != nil {
			return nil, err
		}
		return &CheckInOutcome{Completed: false, Message: "Task not marked as completed"}, nil
	}

	if note == "" {
		note = domain.TaskLabel(day, slot)
	}

	var streak int
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		c, err := tx.GetChallengeForUpdate(ctx, challengeID)
		if err != nil {
			return err
		}

		prevLastDay := c.LastDay()
		task := domain.CompletedTask{
			Day:         day,
			Timeslot:    slot,
			Note:        note,
			CompletedAt: s.now(),
		}
		if err := tx.UpsertTask(ctx, c.ID, task); err != nil {
			return err
		}

		streak = nextStreak(prevLastDay, c.StreakDays, day)
		if streak != c.StreakDays {
			if err := tx.SetChallengeStreak(ctx, c.ID, streak); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ChallengeCheckIns.WithLabelValues(string(slot)).Inc()
	slog.Info("challenge check-in", "challenge_id", challengeID, "day", day, "timeslot", slot, "streak_days", streak)

	return &CheckInOutcome{
		Completed:  true,
		StreakDays: streak,
		NextTask:   nextTaskLabel(day, slot),
	}, nil
}

// SyncDays refreshes the cached current day of every active challenge and
// returns how many were updated.
func (s *ChallengeService) SyncDays(ctx context.Context) (int, error) {
	challenges, err := s.store.ListActiveChallenges(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	updated := 0
	for i := range challenges {
		c := &challenges[i]
		day := ChallengeDay(c.StartDate, now)
		if day == c.CurrentDay {
			continue
		}
		if err := s.storeDay(ctx, c, day); err != nil {
			return updated, fmt.Errorf("sync challenge %s: %w", c.ID, err)
		}
		updated++
	}

	metrics.ChallengeDaysSynced.Add(float64(updated))
	return updated, nil
}
