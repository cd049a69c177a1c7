package habits

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultGracePeriodHours is the maximum gap between completions
	// before a streak resets
	DefaultGracePeriodHours = 48
	// DefaultLookaheadHours is the default horizon for due-reminder queries
	DefaultLookaheadHours = 24
)

// milestones is the fixed set of streak lengths that trigger a celebration
// flag. Membership is exact, not modulo.
var milestones = map[int]struct{}{
	7: {}, 14: {}, 30: {}, 60: {}, 90: {}, 100: {}, 365: {},
}

// IsMilestone reports whether streak is exactly one of the celebrated lengths.
func IsMilestone(streak int) bool {
	_, ok := milestones[streak]
	return ok
}

// Store is the persistence contract the scheduler needs. Implemented by
// database.HabitRepository; tests substitute a fake.
type Store interface {
	Create(ctx context.Context, habit *models.Habit) error
	Update(ctx context.Context, habit *models.Habit) error

	// Complete runs apply against the habit row inside a single
	// serializable read-modify-write and returns the updated habit.
	Complete(ctx context.Context, habitID, userID uuid.UUID, apply func(*models.Habit)) (*models.Habit, error)

	// ListDueBefore returns the user's active habits whose NextReminderAt
	// falls in [from, until), ordered ascending by NextReminderAt.
	ListDueBefore(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]*models.Habit, error)
}

// Scheduler maintains next-reminder timestamps and streak counters for
// habits. It holds no state of its own beyond configuration; every
// time-sensitive operation takes now explicitly so behavior is a pure
// function of its inputs plus the store.
type Scheduler struct {
	store            Store
	gracePeriodHours float64
	logger           *zap.Logger
}

// NewScheduler creates a scheduler. gracePeriodHours <= 0 selects the default.
func NewScheduler(store Store, gracePeriodHours int, logger *zap.Logger) *Scheduler {
	if gracePeriodHours <= 0 {
		gracePeriodHours = DefaultGracePeriodHours
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		store:            store,
		gracePeriodHours: float64(gracePeriodHours),
		logger:           logger,
	}
}

// NextOccurrence computes the earliest timestamp strictly satisfying the
// schedule relative to now, or nil when the schedule carries no days or
// time ("no reminder configured" is a valid state).
//
// Days are scanned in ascending numeric order. A slot today qualifies only
// if now's time-of-day is strictly before the scheduled time; at the exact
// scheduled instant the slot counts as passed and the occurrence rolls to
// the next qualifying day. When no day this week qualifies, the occurrence
// wraps to the smallest day next week.
func NextOccurrence(s *models.Schedule, now time.Time) *time.Time {
	if s.IsEmpty() {
		return nil
	}
	hour, minute, ok := parseClock(s.Time)
	if !ok {
		return nil
	}

	days := make([]int, 0, len(s.Days))
	for _, d := range s.Days {
		if d >= 1 && d <= 7 {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil
	}
	sort.Ints(days)

	cw := isoWeekday(now)
	nowClock := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second +
		time.Duration(now.Nanosecond())
	target := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute

	offset := -1
	for _, d := range days {
		if d > cw {
			offset = d - cw
			break
		}
		if d == cw && nowClock < target {
			offset = 0
			break
		}
	}
	if offset < 0 {
		// Today's slot already passed and no later day this week:
		// wrap to the smallest day next week.
		offset = (7 - cw) + days[0]
	}

	next := now.AddDate(0, 0, offset)
	next = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, next.Location())
	return &next
}

// OnHabitCreated derives the initial reminder timestamp and persists the
// habit. Habits without a schedule are stored with no reminder.
func (s *Scheduler) OnHabitCreated(ctx context.Context, habit *models.Habit, now time.Time) error {
	habit.NextReminderAt = NextOccurrence(habit.Schedule, now)
	if err := s.store.Create(ctx, habit); err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

// OnScheduleEdited replaces the habit's schedule and recomputes the
// reminder unconditionally from the new schedule, ignoring any prior value.
func (s *Scheduler) OnScheduleEdited(ctx context.Context, habit *models.Habit, schedule *models.Schedule, now time.Time) error {
	habit.Schedule = schedule
	habit.NextReminderAt = NextOccurrence(schedule, now)
	if err := s.store.Update(ctx, habit); err != nil {
		return fmt.Errorf("update habit schedule: %w", err)
	}
	return nil
}

// OnHabitCompleted records a completion at now, advancing or resetting the
// streak and rescheduling the reminder. Returns the updated habit and
// whether the resulting streak hit a milestone. The store executes the
// update as a serializable read-modify-write; no other habit is touched.
func (s *Scheduler) OnHabitCompleted(ctx context.Context, habitID, userID uuid.UUID, now time.Time) (*models.Habit, bool, error) {
	updated, err := s.store.Complete(ctx, habitID, userID, func(h *models.Habit) {
		s.applyCompletion(h, now)
	})
	if err != nil {
		return nil, false, fmt.Errorf("complete habit: %w", err)
	}
	milestone := IsMilestone(updated.CurrentStreak)
	if milestone {
		s.logger.Info("streak_milestone_reached",
			zap.String("habit_id", habitID.String()),
			zap.Int("streak", updated.CurrentStreak),
		)
	}
	return updated, milestone, nil
}

// applyCompletion advances habit state for a completion at now. Derived
// purely from (now, LastCompletedAt, CurrentStreak); no event log needed.
func (s *Scheduler) applyCompletion(h *models.Habit, now time.Time) {
	if h.LastCompletedAt == nil {
		h.CurrentStreak = 1
	} else {
		hoursSinceLast := now.Sub(*h.LastCompletedAt).Hours()
		if hoursSinceLast <= s.gracePeriodHours {
			h.CurrentStreak++
		} else {
			// Streak broken; this completion starts a new one.
			h.CurrentStreak = 1
		}
	}
	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}
	h.TotalCompletions++
	last := now
	h.LastCompletedAt = &last
	h.NextReminderAt = NextOccurrence(h.Schedule, now)
}

// DueBefore returns the user's active habits due within [now, now+horizon),
// ordered ascending by reminder time. Minutes-until-due is computed at
// query time so results stay accurate regardless of query delay.
func (s *Scheduler) DueBefore(ctx context.Context, userID uuid.UUID, horizonHours int, now time.Time) ([]*models.DueHabit, error) {
	if horizonHours <= 0 {
		horizonHours = DefaultLookaheadHours
	}
	until := now.Add(time.Duration(horizonHours) * time.Hour)
	due, err := s.store.ListDueBefore(ctx, userID, now, until)
	if err != nil {
		return nil, fmt.Errorf("list due habits: %w", err)
	}
	result := make([]*models.DueHabit, 0, len(due))
	for _, h := range due {
		if h.NextReminderAt == nil {
			continue
		}
		result = append(result, &models.DueHabit{
			Habit:           h,
			MinutesUntilDue: h.NextReminderAt.Sub(now).Minutes(),
		})
	}
	return result, nil
}

// isoWeekday returns the ISO weekday of t (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(clock string) (hour, minute int, ok bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
