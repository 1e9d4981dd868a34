package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Timeslot string

const (
	TimeslotMorning Timeslot = "morning"
	TimeslotNoon    Timeslot = "noon"
	TimeslotEvening Timeslot = "evening"
)

// Timeslots lists the daily slots in the order they are completed.
var Timeslots = []Timeslot{TimeslotMorning, TimeslotNoon, TimeslotEvening}

func ParseTimeslot(s string) (Timeslot, error) {
	for _, ts := range Timeslots {
		if string(ts) == s {
			return ts, nil
		}
	}
	return "", ErrInvalidTimeslot
}

// Next returns the slot after s and whether it wraps to the following day.
func (s Timeslot) Next() (Timeslot, bool) {
	for i, ts := range Timeslots {
		if ts == s && i < len(Timeslots)-1 {
			return Timeslots[i+1], false
		}
	}
	return TimeslotMorning, true
}

// TaskLabel is the default description of a daily task.
func TaskLabel(day int, slot Timeslot) string {
	return fmt.Sprintf("Tugas %s hari ke-%d", slot, day)
}

type ChallengeStatus string

// Challenges are only ever active; nothing moves them to a completed state.
const ChallengeStatusActive ChallengeStatus = "active"

type CompletedTask struct {
	Day         int
	Timeslot    Timeslot
	Note        string
	CompletedAt time.Time
}

type Challenge struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Status         ChallengeStatus
	StartDate      time.Time
	CurrentDay     int
	StreakDays     int
	CompletedTasks []CompletedTask
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Challenge) HasTask(day int, slot Timeslot) bool {
	for _, t := range c.CompletedTasks {
		if t.Day == day && t.Timeslot == slot {
			return true
		}
	}
	return false
}

// LastDay returns the highest day with a completed task, or 0.
func (c *Challenge) LastDay() int {
	last := 0
	for _, t := range c.CompletedTasks {
		if t.Day > last {
			last = t.Day
		}
	}
	return last
}
