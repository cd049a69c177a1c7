package models

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty represents a routine difficulty rating
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// SessionType distinguishes camera-tracked sessions from manually logged ones
type SessionType string

const (
	SessionTypeCamera SessionType = "camera"
	SessionTypeManual SessionType = "manual"
)

// Exercise is one entry in a routine or a completed session
type Exercise struct {
	Name     string `json:"name"`
	Sets     int    `json:"sets,omitempty"`
	Reps     int    `json:"reps,omitempty"`
	Duration int    `json:"duration_seconds,omitempty"`
}

// WorkoutRoutine is a reusable workout template
type WorkoutRoutine struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Exercises         []Exercise `json:"exercises"`
	Difficulty        Difficulty `json:"difficulty,omitempty"`
	EstimatedDuration int        `json:"estimated_duration_minutes,omitempty"`
	IsCameraBased     bool       `json:"is_camera_based"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// WorkoutSession is a single workout, in progress until CompletedAt is set
type WorkoutSession struct {
	ID                 uuid.UUID   `json:"id"`
	UserID             uuid.UUID   `json:"user_id"`
	RoutineID          *uuid.UUID  `json:"routine_id,omitempty"`
	SessionType        SessionType `json:"session_type"`
	StartedAt          time.Time   `json:"started_at"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	DurationMinutes    int         `json:"duration_minutes,omitempty"`
	ExercisesCompleted []Exercise  `json:"exercises_completed,omitempty"`
	CaloriesBurned     *int        `json:"calories_burned,omitempty"`
	Notes              string      `json:"notes,omitempty"`
}
