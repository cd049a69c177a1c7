package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

// PoseRepository handles pose analysis records
type PoseRepository struct {
	db *DB
}

// NewPoseRepository creates a new pose repository
func NewPoseRepository(db *DB) *PoseRepository {
	return &PoseRepository{db: db}
}

// Create stores a new pose analysis
func (r *PoseRepository) Create(ctx context.Context, analysis *models.PoseAnalysis) error {
	query := `
		INSERT INTO pose_analyses (id, session_id, exercise_name, timestamp,
			form_score, rep_count, range_of_motion, feedback_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	if analysis.Timestamp.IsZero() {
		analysis.Timestamp = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		analysis.ID,
		analysis.SessionID,
		analysis.ExerciseName,
		analysis.Timestamp,
		analysis.FormScore,
		analysis.RepCount,
		analysis.RangeOfMotion,
		analysis.FeedbackText,
	)
	if err != nil {
		return fmt.Errorf("failed to create pose analysis: %w", err)
	}

	return nil
}

// GetByID retrieves a pose analysis by ID
func (r *PoseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PoseAnalysis, error) {
	analysis := &models.PoseAnalysis{}
	var feedback sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, exercise_name, timestamp, form_score, rep_count,
			range_of_motion, feedback_text
		FROM pose_analyses
		WHERE id = $1
	`, id).Scan(
		&analysis.ID,
		&analysis.SessionID,
		&analysis.ExerciseName,
		&analysis.Timestamp,
		&analysis.FormScore,
		&analysis.RepCount,
		&analysis.RangeOfMotion,
		&feedback,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pose analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pose analysis: %w", err)
	}
	if feedback.Valid {
		analysis.FeedbackText = feedback.String
	}

	return analysis, nil
}

// GetBySessionID retrieves all analyses for a session, oldest first
func (r *PoseRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*models.PoseAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, exercise_name, timestamp, form_score, rep_count,
			range_of_motion, feedback_text
		FROM pose_analyses
		WHERE session_id = $1
		ORDER BY timestamp ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pose analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.PoseAnalysis
	for rows.Next() {
		analysis := &models.PoseAnalysis{}
		var feedback sql.NullString
		err := rows.Scan(
			&analysis.ID,
			&analysis.SessionID,
			&analysis.ExerciseName,
			&analysis.Timestamp,
			&analysis.FormScore,
			&analysis.RepCount,
			&analysis.RangeOfMotion,
			&feedback,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pose analysis: %w", err)
		}
		if feedback.Valid {
			analysis.FeedbackText = feedback.String
		}
		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pose analyses: %w", err)
	}

	return analyses, nil
}

// SetFeedback writes generated feedback text back onto an analysis row
func (r *PoseRepository) SetFeedback(ctx context.Context, id uuid.UUID, feedback string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE pose_analyses SET feedback_text = $2 WHERE id = $1
	`, id, feedback)
	if err != nil {
		return fmt.Errorf("failed to set pose feedback: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("pose analysis %s: %w", id, ErrNotFound)
	}
	return nil
}
