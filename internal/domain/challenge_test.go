package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeslot(t *testing.T) {
	for _, slot := range []string{"morning", "noon", "evening"} {
		got, err := ParseTimeslot(slot)
		require.NoError(t, err)
		assert.Equal(t, Timeslot(slot), got)
	}

	for _, bad := range []string{"", "Morning", "night"} {
		_, err := ParseTimeslot(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestTimeslot_Next(t *testing.T) {
	next, wraps := TimeslotMorning.Next()
	assert.Equal(t, TimeslotNoon, next)
	assert.False(t, wraps)

	next, wraps = TimeslotNoon.Next()
	assert.Equal(t, TimeslotEvening, next)
	assert.False(t, wraps)

	next, wraps = TimeslotEvening.Next()
	assert.Equal(t, TimeslotMorning, next)
	assert.True(t, wraps)
}

func TestChallenge_LastDay(t *testing.T) {
	c := &Challenge{}
	assert.Equal(t, 0, c.LastDay())

	c.CompletedTasks = []CompletedTask{
		{Day: 3, Timeslot: TimeslotNoon},
		{Day: 7, Timeslot: TimeslotMorning},
		{Day: 5, Timeslot: TimeslotEvening},
	}
	assert.Equal(t, 7, c.LastDay())
	assert.True(t, c.HasTask(7, TimeslotMorning))
	assert.False(t, c.HasTask(7, TimeslotNoon))
}
