package models

import (
	"time"

	"github.com/google/uuid"
)

// Frequency represents how often a habit recurs
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Schedule describes when a habit's reminders fire. Days are ISO weekday
// ordinals (Monday=1 .. Sunday=7); Time is local "HH:MM".
type Schedule struct {
	Days []int  `json:"days" validate:"omitempty,dive,min=1,max=7"`
	Time string `json:"time" validate:"omitempty,reminder_time"`
}

// IsEmpty reports whether the schedule carries no usable reminder rule.
// A habit with an empty schedule has no reminder; that is a valid state,
// not an error.
func (s *Schedule) IsEmpty() bool {
	return s == nil || len(s.Days) == 0 || s.Time == ""
}

// Habit represents a recurring tracked activity with streak state.
//
// CurrentStreak, LongestStreak, TotalCompletions, LastCompletedAt and
// NextReminderAt are derived fields. They are written only by the habits
// scheduler; handlers never set them from request input.
type Habit struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	RoutineID *uuid.UUID `json:"routine_id,omitempty"`
	Name      string     `json:"name"`
	Frequency Frequency  `json:"frequency"`
	Schedule  *Schedule  `json:"schedule,omitempty"`

	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	TotalCompletions int        `json:"total_completions"`
	LastCompletedAt  *time.Time `json:"last_completed_at,omitempty"`
	NextReminderAt   *time.Time `json:"next_reminder_at,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DueHabit pairs a habit with the minutes remaining until its reminder,
// computed at query time.
type DueHabit struct {
	Habit           *Habit  `json:"habit"`
	MinutesUntilDue float64 `json:"minutes_until_due"`
}
