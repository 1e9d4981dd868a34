package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/metrics"
	"github.com/set-night/healthchallenge/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	AchievementWeek1         = "week_1"
	AchievementWeek2         = "week_2"
	AchievementWeek3         = "week_3"
	AchievementChampion      = "champion"
	AchievementPerfectionist = "perfectionist"
)

// Check-in day counts and completion rate that unlock achievements.
var (
	dayAchievements = []struct {
		days int
		name string
	}{
		{7, AchievementWeek1},
		{14, AchievementWeek2},
		{21, AchievementWeek3},
		{config.ChallengeDays, AchievementChampion},
	}
	perfectionistRate = decimal.NewFromInt(90)
)

type HealthService struct {
	store repository.Store
	now   func() time.Time
}

func NewHealthService(store repository.Store) *HealthService {
	return &HealthService{store: store, now: time.Now}
}

type DailyCheckinInput struct {
	Day          int
	ComfortLevel int
	Symptoms     []string
	Notes        string
	MorningDone  bool
	NoonDone     bool
	EveningDone  bool
}

// SubmitCheckin records the user's wellbeing for a day of their active
// challenge, replacing an earlier check-in for the same day. It reports
// whether a new check-in was created.
func (s *HealthService) SubmitCheckin(ctx context.Context, userID uuid.UUID, in DailyCheckinInput) (*domain.DailyCheckin, bool, error) {
	if in.Day < 1 || in.Day > config.ChallengeDays {
		return nil, false, domain.ErrInvalidDay
	}
	if in.ComfortLevel < config.MinComfortLevel || in.ComfortLevel > config.MaxComfortLevel {
		return nil, false, domain.ErrInvalidComfort
	}

	challenge, err := s.store.GetActiveChallenge(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	var symptoms []string
	for _, sym := range in.Symptoms {
		if sym = strings.TrimSpace(sym); sym != "" {
			symptoms = append(symptoms, sym)
		}
	}

	now := s.now()
	c := &domain.DailyCheckin{
		ID:           uuid.New(),
		UserID:       userID,
		ChallengeID:  challenge.ID,
		Day:          in.Day,
		ComfortLevel: in.ComfortLevel,
		Symptoms:     symptoms,
		Notes:        strings.TrimSpace(in.Notes),
		MorningDone:  in.MorningDone,
		NoonDone:     in.NoonDone,
		EveningDone:  in.EveningDone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.store.UpsertDailyCheckin(ctx, c)
	if err != nil {
		return nil, false, err
	}

	result := "replaced"
	if created {
		result = "created"
	}
	metrics.DailyCheckins.WithLabelValues(result).Inc()
	slog.Info("daily check-in", "user_id", userID, "day", in.Day, "comfort_level", in.ComfortLevel, "result", result)
	return c, created, nil
}

type HealthReport struct {
	TotalDays int
	// CompletionRate is the percentage of check-in days with all three
	// tasks done.
	CompletionRate decimal.Decimal
	AverageComfort decimal.Decimal
	ComfortTrend   []int
	Achievements   []string
	Latest         *domain.DailyCheckin
}

func (s *HealthService) Report(ctx context.Context, userID uuid.UUID) (*HealthReport, error) {
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return nil, err
	}
	checkins, err := s.store.ListDailyCheckins(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return buildHealthReport(checkins), nil
}

// buildHealthReport expects checkins ordered by day.
func buildHealthReport(checkins []domain.DailyCheckin) *HealthReport {
	report := &HealthReport{
		TotalDays:      len(checkins),
		CompletionRate: decimal.Zero,
		AverageComfort: decimal.Zero,
		ComfortTrend:   []int{},
		Achievements:   []string{},
	}
	if len(checkins) == 0 {
		return report
	}

	var fullDays, comfortSum int
	for i := range checkins {
		if checkins[i].AllTasksDone() {
			fullDays++
		}
		comfortSum += checkins[i].ComfortLevel
		report.ComfortTrend = append(report.ComfortTrend, checkins[i].ComfortLevel)
	}

	total := decimal.NewFromInt(int64(len(checkins)))
	report.CompletionRate = decimal.NewFromInt(int64(fullDays * 100)).Div(total).Round(2)
	report.AverageComfort = decimal.NewFromInt(int64(comfortSum)).Div(total).Round(2)

	for _, a := range dayAchievements {
		if report.TotalDays >= a.days {
			report.Achievements = append(report.Achievements, a.name)
		}
	}
	if report.CompletionRate.GreaterThanOrEqual(perfectionistRate) {
		report.Achievements = append(report.Achievements, AchievementPerfectionist)
	}

	latest := checkins[len(checkins)-1]
	report.Latest = &latest
	return report
}
