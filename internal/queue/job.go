package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeReminderDispatch is a job for delivering one due habit reminder
	JobTypeReminderDispatch JobType = "reminder_dispatch"
	// JobTypePoseFeedback is a job for generating coach feedback on a pose analysis
	JobTypePoseFeedback JobType = "pose_feedback"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	HabitID    *uuid.UUID     `json:"habit_id,omitempty"`    // Set for reminder dispatch jobs
	AnalysisID *uuid.UUID     `json:"analysis_id,omitempty"` // Set for pose feedback jobs
	NotBefore  *time.Time     `json:"not_before,omitempty"`  // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`   // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`    // Job-specific data
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewReminderDispatchJob creates a job for one due habit reminder
func NewReminderDispatchJob(userID, habitID uuid.UUID) *Job {
	job := newJob(JobTypeReminderDispatch, userID)
	job.HabitID = &habitID
	return job
}

// NewPoseFeedbackJob creates a job for generating feedback on a pose analysis
func NewPoseFeedbackJob(userID, analysisID uuid.UUID) *Job {
	job := newJob(JobTypePoseFeedback, userID)
	job.AnalysisID = &analysisID
	return job
}

func newJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	// Check NotBefore
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	// Check NotAfter
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
