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

// RoutineRepository handles workout routine templates
type RoutineRepository struct {
	db *DB
}

// NewRoutineRepository creates a new routine repository
func NewRoutineRepository(db *DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

// Create creates a new workout routine
func (r *RoutineRepository) Create(ctx context.Context, routine *models.WorkoutRoutine) error {
	query := `
		INSERT INTO workout_routines (id, user_id, name, description, exercises,
			difficulty, estimated_duration_minutes, is_camera_based, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	exercisesJSON, err := json.Marshal(routine.Exercises)
	if err != nil {
		return fmt.Errorf("failed to marshal exercises: %w", err)
	}

	if routine.ID == uuid.Nil {
		routine.ID = uuid.New()
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		routine.ID,
		routine.UserID,
		routine.Name,
		routine.Description,
		exercisesJSON,
		string(routine.Difficulty),
		routine.EstimatedDuration,
		routine.IsCameraBased,
		now,
		now,
	).Scan(&routine.CreatedAt, &routine.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create routine: %w", err)
	}

	return nil
}

// GetByID retrieves a routine by ID, scoped to its owner
func (r *RoutineRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.WorkoutRoutine, error) {
	query := `
		SELECT id, user_id, name, description, exercises, difficulty,
			estimated_duration_minutes, is_camera_based, created_at, updated_at
		FROM workout_routines
		WHERE id = $1 AND user_id = $2
	`

	routine := &models.WorkoutRoutine{}
	var exercisesJSON []byte
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&routine.ID,
		&routine.UserID,
		&routine.Name,
		&routine.Description,
		&exercisesJSON,
		&routine.Difficulty,
		&routine.EstimatedDuration,
		&routine.IsCameraBased,
		&routine.CreatedAt,
		&routine.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("routine %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routine: %w", err)
	}

	if len(exercisesJSON) > 0 {
		if err := json.Unmarshal(exercisesJSON, &routine.Exercises); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exercises: %w", err)
		}
	}

	return routine, nil
}

// GetByUserID retrieves all routines for a user
func (r *RoutineRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.WorkoutRoutine, error) {
	query := `
		SELECT id, user_id, name, description, exercises, difficulty,
			estimated_duration_minutes, is_camera_based, created_at, updated_at
		FROM workout_routines
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines: %w", err)
	}
	defer rows.Close()

	var routines []*models.WorkoutRoutine
	for rows.Next() {
		routine := &models.WorkoutRoutine{}
		var exercisesJSON []byte
		err := rows.Scan(
			&routine.ID,
			&routine.UserID,
			&routine.Name,
			&routine.Description,
			&exercisesJSON,
			&routine.Difficulty,
			&routine.EstimatedDuration,
			&routine.IsCameraBased,
			&routine.CreatedAt,
			&routine.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		if len(exercisesJSON) > 0 {
			if err := json.Unmarshal(exercisesJSON, &routine.Exercises); err != nil {
				return nil, fmt.Errorf("failed to unmarshal exercises: %w", err)
			}
		}
		routines = append(routines, routine)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routines: %w", err)
	}

	return routines, nil
}

// Delete permanently removes a routine
func (r *RoutineRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workout_routines WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("routine %s: %w", id, ErrNotFound)
	}
	return nil
}

// SessionRepository handles workout sessions
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, routine_id, session_type, started_at,
	completed_at, duration_minutes, exercises_completed, calories_burned, notes`

// Create creates a new workout session
func (r *SessionRepository) Create(ctx context.Context, session *models.WorkoutSession) error {
	query := `
		INSERT INTO workout_sessions (id, user_id, routine_id, session_type,
			started_at, completed_at, duration_minutes, exercises_completed,
			calories_burned, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	exercisesJSON, err := json.Marshal(session.ExercisesCompleted)
	if err != nil {
		return fmt.Errorf("failed to marshal exercises: %w", err)
	}

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.RoutineID,
		string(session.SessionType),
		session.StartedAt,
		nullTime(session.CompletedAt),
		session.DurationMinutes,
		exercisesJSON,
		session.CaloriesBurned,
		session.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID, scoped to its owner
func (r *SessionRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.WorkoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE id = $1 AND user_id = $2`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// Update updates a session (used to complete an in-progress workout)
func (r *SessionRepository) Update(ctx context.Context, session *models.WorkoutSession) error {
	query := `
		UPDATE workout_sessions
		SET completed_at = $3, duration_minutes = $4, exercises_completed = $5,
			calories_burned = $6, notes = $7
		WHERE id = $1 AND user_id = $2
	`

	exercisesJSON, err := json.Marshal(session.ExercisesCompleted)
	if err != nil {
		return fmt.Errorf("failed to marshal exercises: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		nullTime(session.CompletedAt),
		session.DurationMinutes,
		exercisesJSON,
		session.CaloriesBurned,
		session.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}

	return nil
}

// GetByUserID retrieves sessions for a user, newest first
func (r *SessionRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.WorkoutSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM workout_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2`
	return r.querySessions(ctx, query, userID, limit)
}

// RecentCompleted returns the user's most recently completed sessions,
// newest first, limited to limit rows
func (r *SessionRepository) RecentCompleted(ctx context.Context, userID uuid.UUID, limit int) ([]*models.WorkoutSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM workout_sessions
		WHERE user_id = $1 AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT $2`
	return r.querySessions(ctx, query, userID, limit)
}

// CountSince counts the user's sessions started at or after since
func (r *SessionRepository) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM workout_sessions WHERE user_id = $1 AND started_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]*models.WorkoutSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.WorkoutSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(row rowScanner) (*models.WorkoutSession, error) {
	session := &models.WorkoutSession{}
	var routineID uuid.NullUUID
	var completedAt sql.NullTime
	var exercisesJSON []byte
	var calories sql.NullInt64
	var notes sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&routineID,
		&session.SessionType,
		&session.StartedAt,
		&completedAt,
		&session.DurationMinutes,
		&exercisesJSON,
		&calories,
		&notes,
	)
	if err != nil {
		return nil, err
	}

	if routineID.Valid {
		session.RoutineID = &routineID.UUID
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}
	if len(exercisesJSON) > 0 {
		if err := json.Unmarshal(exercisesJSON, &session.ExercisesCompleted); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exercises: %w", err)
		}
	}
	if calories.Valid {
		c := int(calories.Int64)
		session.CaloriesBurned = &c
	}
	if notes.Valid {
		session.Notes = notes.String
	}

	return session, nil
}
