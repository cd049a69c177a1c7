package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/queue"
)

// DefaultScanInterval is how often the reminder scanner sweeps for due habits.
const DefaultScanInterval = 5 * time.Minute

// HabitDueLister is the read the scanner needs: habits across all users whose
// reminder falls inside a window.
type HabitDueLister interface {
	ListDueBeforeAll(ctx context.Context, from, until time.Time) ([]*models.Habit, error)
}

// ReminderScanner periodically sweeps for habits whose reminder falls inside
// the next scan window and enqueues one dispatch job per due habit. Each
// reminder timestamp lands in exactly one window, so a reminder is enqueued
// once per occurrence.
type ReminderScanner struct {
	jobQueue queue.JobQueue
	habits   HabitDueLister
	interval time.Duration
	logger   *zap.Logger
}

// NewReminderScanner creates a reminder scanner. Non-positive intervals fall
// back to DefaultScanInterval.
func NewReminderScanner(jobQueue queue.JobQueue, habits HabitDueLister, interval time.Duration, logger *zap.Logger) *ReminderScanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScanner{
		jobQueue: jobQueue,
		habits:   habits,
		interval: interval,
		logger:   logger,
	}
}

// Run scans on a fixed ticker until the context is cancelled.
func (s *ReminderScanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder_scanner_stopped")
			return
		case now := <-ticker.C:
			if _, err := s.ScanOnce(ctx, now); err != nil {
				s.logger.Error("reminder_scan_failed", zap.Error(err))
			}
		}
	}
}

// ScanOnce enqueues dispatch jobs for habits due in [now, now+interval) and
// returns the number of jobs enqueued.
func (s *ReminderScanner) ScanOnce(ctx context.Context, now time.Time) (int, error) {
	until := now.Add(s.interval)

	due, err := s.habits.ListDueBeforeAll(ctx, now, until)
	if err != nil {
		return 0, fmt.Errorf("failed to list due habits: %w", err)
	}

	enqueued := 0
	for _, habit := range due {
		job := queue.NewReminderDispatchJob(habit.UserID, habit.ID)
		if habit.NextReminderAt != nil {
			job.NotBefore = habit.NextReminderAt
			// Stale reminders are garbage collected rather than delivered late.
			notAfter := habit.NextReminderAt.Add(24 * time.Hour)
			job.NotAfter = &notAfter
			job.Metadata["reminder_at"] = habit.NextReminderAt.Format(time.RFC3339)
		}

		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			s.logger.Warn("failed_to_enqueue_reminder_job",
				zap.String("habit_id", habit.ID.String()),
				zap.String("user_id", habit.UserID.String()),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		s.logger.Info("reminder_scan_complete",
			zap.Int("due", len(due)),
			zap.Int("enqueued", enqueued),
			zap.Time("window_start", now),
			zap.Time("window_end", until),
		)
	}

	return enqueued, nil
}

// Notifier delivers a due-habit reminder to the user.
type Notifier interface {
	NotifyHabitDue(ctx context.Context, habit *models.Habit) error
}

// LogNotifier records reminder deliveries in the application log. Push and
// email channels plug in behind the same interface.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// NotifyHabitDue logs the reminder
func (n *LogNotifier) NotifyHabitDue(_ context.Context, habit *models.Habit) error {
	fields := []zap.Field{
		zap.String("habit_id", habit.ID.String()),
		zap.String("user_id", habit.UserID.String()),
		zap.String("habit_name", habit.Name),
		zap.Int("current_streak", habit.CurrentStreak),
	}
	if habit.NextReminderAt != nil {
		fields = append(fields, zap.Time("reminder_at", *habit.NextReminderAt))
	}
	n.logger.Info("habit_reminder_due", fields...)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
