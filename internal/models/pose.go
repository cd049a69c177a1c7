package models

import (
	"time"

	"github.com/google/uuid"
)

// PoseAnalysis holds the scalar results of a pose-detection pass over one
// exercise within a camera session. Keypoint geometry is computed upstream;
// only the derived scores are stored here.
type PoseAnalysis struct {
	ID            uuid.UUID `json:"id"`
	SessionID     uuid.UUID `json:"session_id"`
	ExerciseName  string    `json:"exercise_name"`
	Timestamp     time.Time `json:"timestamp"`
	FormScore     float64   `json:"form_score"` // 0-100
	RepCount      int       `json:"rep_count"`
	RangeOfMotion float64   `json:"range_of_motion"`
	FeedbackText  string    `json:"feedback_text,omitempty"`
}
