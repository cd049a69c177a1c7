package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

// HabitRepository handles habit database operations
type HabitRepository struct {
	db *DB
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *DB) *HabitRepository {
	return &HabitRepository{db: db}
}

const habitColumns = `id, user_id, routine_id, name, frequency, schedule,
	current_streak, longest_streak, total_completions, last_completed_at,
	next_reminder_at, is_active, created_at`

// Create creates a new habit
func (r *HabitRepository) Create(ctx context.Context, habit *models.Habit) error {
	query := `
		INSERT INTO habits (id, user_id, routine_id, name, frequency, schedule,
			current_streak, longest_streak, total_completions, last_completed_at,
			next_reminder_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`

	scheduleJSON, err := marshalSchedule(habit.Schedule)
	if err != nil {
		return err
	}

	if habit.ID == uuid.Nil {
		habit.ID = uuid.New()
	}

	err = r.db.QueryRowContext(ctx, query,
		habit.ID,
		habit.UserID,
		habit.RoutineID,
		habit.Name,
		habit.Frequency,
		scheduleJSON,
		habit.CurrentStreak,
		habit.LongestStreak,
		habit.TotalCompletions,
		nullTime(habit.LastCompletedAt),
		nullTime(habit.NextReminderAt),
		habit.IsActive,
		time.Now(),
	).Scan(&habit.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}

	return nil
}

// GetByID retrieves a habit by ID, scoped to its owner
func (r *HabitRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND user_id = $2`

	habit, err := scanHabit(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return habit, nil
}

// GetByUserID retrieves all habits for a user, optionally active only
func (r *HabitRepository) GetByUserID(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, habit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	return habits, nil
}

// Update updates a habit's mutable fields, derived tracking state included
func (r *HabitRepository) Update(ctx context.Context, habit *models.Habit) error {
	query := `
		UPDATE habits
		SET name = $3, frequency = $4, schedule = $5, current_streak = $6,
			longest_streak = $7, total_completions = $8, last_completed_at = $9,
			next_reminder_at = $10, is_active = $11
		WHERE id = $1 AND user_id = $2
	`

	scheduleJSON, err := marshalSchedule(habit.Schedule)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		habit.ID,
		habit.UserID,
		habit.Name,
		habit.Frequency,
		scheduleJSON,
		habit.CurrentStreak,
		habit.LongestStreak,
		habit.TotalCompletions,
		nullTime(habit.LastCompletedAt),
		nullTime(habit.NextReminderAt),
		habit.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("habit %s: %w", habit.ID, ErrNotFound)
	}

	return nil
}

// Complete applies a completion to a habit inside a single transaction.
// The row is locked for the duration so concurrent completions of the same
// habit serialize; the apply callback sees the committed state and mutates
// the derived tracking fields.
func (r *HabitRepository) Complete(ctx context.Context, habitID, userID uuid.UUID, apply func(*models.Habit)) (*models.Habit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND user_id = $2 FOR UPDATE`
	habit, err := scanHabit(tx.QueryRowContext(ctx, query, habitID, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("habit %s: %w", habitID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit for completion: %w", err)
	}

	apply(habit)

	scheduleJSON, err := marshalSchedule(habit.Schedule)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE habits
		SET schedule = $2, current_streak = $3, longest_streak = $4,
			total_completions = $5, last_completed_at = $6, next_reminder_at = $7
		WHERE id = $1
	`,
		habit.ID,
		scheduleJSON,
		habit.CurrentStreak,
		habit.LongestStreak,
		habit.TotalCompletions,
		nullTime(habit.LastCompletedAt),
		nullTime(habit.NextReminderAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist completion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	return habit, nil
}

// ListDueBefore returns the user's active habits with a reminder in
// [from, until), ordered ascending by reminder time
func (r *HabitRepository) ListDueBefore(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]*models.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE user_id = $1 AND is_active = TRUE
			AND next_reminder_at >= $2 AND next_reminder_at < $3
		ORDER BY next_reminder_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query due habits: %w", err)
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due habit: %w", err)
		}
		habits = append(habits, habit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due habits: %w", err)
	}

	return habits, nil
}

// ListDueBeforeAll returns due habits across all users, for the reminder
// dispatch scan
func (r *HabitRepository) ListDueBeforeAll(ctx context.Context, from, until time.Time) ([]*models.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE is_active = TRUE AND next_reminder_at >= $1 AND next_reminder_at < $2
		ORDER BY next_reminder_at ASC`

	rows, err := r.db.QueryContext(ctx, query, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query due habits: %w", err)
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due habit: %w", err)
		}
		habits = append(habits, habit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due habits: %w", err)
	}

	return habits, nil
}

// Delete permanently removes a habit. No soft delete.
func (r *HabitRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}

	return nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (*models.Habit, error) {
	habit := &models.Habit{}
	var routineID uuid.NullUUID
	var scheduleJSON []byte
	var lastCompletedAt, nextReminderAt sql.NullTime

	err := row.Scan(
		&habit.ID,
		&habit.UserID,
		&routineID,
		&habit.Name,
		&habit.Frequency,
		&scheduleJSON,
		&habit.CurrentStreak,
		&habit.LongestStreak,
		&habit.TotalCompletions,
		&lastCompletedAt,
		&nextReminderAt,
		&habit.IsActive,
		&habit.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if routineID.Valid {
		habit.RoutineID = &routineID.UUID
	}
	if len(scheduleJSON) > 0 {
		var schedule models.Schedule
		if err := json.Unmarshal(scheduleJSON, &schedule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
		}
		if !schedule.IsEmpty() {
			habit.Schedule = &schedule
		}
	}
	if lastCompletedAt.Valid {
		habit.LastCompletedAt = &lastCompletedAt.Time
	}
	if nextReminderAt.Valid {
		habit.NextReminderAt = &nextReminderAt.Time
	}

	return habit, nil
}

func marshalSchedule(s *models.Schedule) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schedule: %w", err)
	}
	return data, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
