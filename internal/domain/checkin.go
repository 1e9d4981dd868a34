package domain

import (
	"time"

	"github.com/google/uuid"
)

// DailyCheckin is a user's self-reported wellbeing for one challenge day.
// There is at most one per (user, day); resubmitting replaces it.
type DailyCheckin struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ChallengeID  uuid.UUID
	Day          int
	ComfortLevel int
	Symptoms     []string
	Notes        string

	MorningDone bool
	NoonDone    bool
	EveningDone bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *DailyCheckin) AllTasksDone() bool {
	return c.MorningDone && c.NoonDone && c.EveningDone
}
