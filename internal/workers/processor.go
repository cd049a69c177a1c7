package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/queue"
	"github.com/wilbertliawantara/fitness-companion/internal/services/ai"
)

// HabitGetter loads one habit scoped to its owner
type HabitGetter interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Habit, error)
}

// PoseStore is the pose-analysis access the processor needs
type PoseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PoseAnalysis, error)
	SetFeedback(ctx context.Context, id uuid.UUID, feedback string) error
}

// FeedbackGenerator produces coach feedback text for a pose analysis
type FeedbackGenerator interface {
	PoseFeedback(ctx context.Context, analysis *models.PoseAnalysis) (string, error)
}

// JobProcessor consumes queue jobs: reminder dispatch and pose feedback
type JobProcessor struct {
	habitRepo HabitGetter
	poseRepo  PoseStore
	feedback  FeedbackGenerator
	notifier  Notifier
	jobQueue  queue.JobQueue // For re-enqueueing jobs with delays
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	habitRepo HabitGetter,
	poseRepo PoseStore,
	feedback FeedbackGenerator,
	notifier Notifier,
	jobQueue queue.JobQueue,
) *JobProcessor {
	return &JobProcessor{
		habitRepo: habitRepo,
		poseRepo:  poseRepo,
		feedback:  feedback,
		notifier:  notifier,
		jobQueue:  jobQueue,
	}
}

// ProcessReminderDispatchJob delivers one due habit reminder
func (p *JobProcessor) ProcessReminderDispatchJob(ctx context.Context, job *queue.Job) error {
	if job.HabitID == nil {
		return fmt.Errorf("habit_id is required for reminder dispatch job")
	}

	habit, err := p.habitRepo.GetByID(ctx, *job.HabitID, job.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Habit deleted between scan and dispatch; nothing to deliver.
			log.Printf("Habit %s gone, dropping reminder job %s", *job.HabitID, job.ID)
			return nil
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}

	if !habit.IsActive {
		log.Printf("Habit %s deactivated, dropping reminder job %s", habit.ID, job.ID)
		return nil
	}

	// A schedule edit after the scan moves the reminder; skip the stale job.
	if scheduledFor, ok := job.Metadata["reminder_at"].(string); ok && habit.NextReminderAt != nil {
		if current := habit.NextReminderAt.Format(time.RFC3339); current != scheduledFor {
			log.Printf("Habit %s reminder moved from %s to %s, dropping job %s", habit.ID, scheduledFor, current, job.ID)
			return nil
		}
	}

	if err := p.notifier.NotifyHabitDue(ctx, habit); err != nil {
		return fmt.Errorf("failed to deliver reminder: %w", err)
	}

	log.Printf("Delivered reminder for habit %s (user %s)", habit.ID, habit.UserID)
	return nil
}

// ProcessPoseFeedbackJob generates and stores coach feedback for one pose analysis
func (p *JobProcessor) ProcessPoseFeedbackJob(ctx context.Context, job *queue.Job) error {
	if job.AnalysisID == nil {
		return fmt.Errorf("analysis_id is required for pose feedback job")
	}

	analysis, err := p.poseRepo.GetByID(ctx, *job.AnalysisID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.Printf("Pose analysis %s gone, dropping feedback job %s", *job.AnalysisID, job.ID)
			return nil
		}
		return fmt.Errorf("failed to get pose analysis: %w", err)
	}

	if analysis.FeedbackText != "" {
		log.Printf("Pose analysis %s already has feedback, skipping job %s", analysis.ID, job.ID)
		return nil
	}

	var feedback string
	if p.feedback == nil {
		feedback = ai.StaticPoseFeedback(analysis.FormScore)
	} else if generated, err := p.feedback.PoseFeedback(ctx, analysis); err == nil {
		feedback = generated
	} else {
		// Rate limit and quota errors are retryable; hand them back to the
		// dispatch loop for delayed re-enqueue.
		if ai.IsRateLimitError(err) || ai.IsQuotaError(err) {
			return err
		}
		log.Printf("Feedback generation failed for analysis %s, using static fallback: %v", analysis.ID, err)
		feedback = ai.StaticPoseFeedback(analysis.FormScore)
	}

	if err := p.poseRepo.SetFeedback(ctx, analysis.ID, feedback); err != nil {
		return fmt.Errorf("failed to store pose feedback: %w", err)
	}

	log.Printf("Stored feedback for pose analysis %s", analysis.ID)
	return nil
}

// ProcessJob processes a job based on its type
func (p *JobProcessor) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		if job.IsExpired() {
			log.Printf("Job %s expired (NotAfter: %v), dropping", job.ID, job.NotAfter)
			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack expired job: %v", ackErr)
			}
			return nil
		}
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeReminderDispatch:
		if err := p.ProcessReminderDispatchJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err, "reminder dispatch")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypePoseFeedback:
		if err := p.ProcessPoseFeedbackJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err, "pose feedback")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *JobProcessor) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error, jobType string) error {
	// Quota errors get a long delayed retry rather than immediate requeue
	if ai.IsQuotaError(err) {
		log.Printf("Quota exceeded for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		delayedJob := p.delayedRetry(job, notBefore)

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		if p.jobQueue != nil {
			if enqueueErr := p.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Re-enqueued %s job %s for retry at %v", jobType, job.ID, notBefore)
			return nil
		}

		log.Printf("Warning: No queue access, cannot re-enqueue job with delay. Sending to DLQ.")
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Printf("Failed to nack quota error job: %v", nackErr)
		}

		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	// Rate limit errors retry with backoff
	if ai.IsRateLimitError(err) {
		log.Printf("Rate limited for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && p.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := p.delayedRetry(job, notBefore)

			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack rate limited job: %v", ackErr)
			}

			if enqueueErr := p.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue rate limited job %s: %v", job.ID, enqueueErr)
				if nackErr := msg.Nack(true); nackErr != nil {
					log.Printf("Failed to nack rate limited job: %v", nackErr)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Rate limited: re-enqueued %s job %s for retry at %v (delay: %v)",
				jobType, job.ID, notBefore, retryDelay)
			return nil
		}

		if job.CanRetry() {
			job.IncrementRetry()
			log.Printf("Rate limit: will retry job %s immediately (attempt %d/%d)",
				job.ID, job.RetryCount, job.MaxRetries)
			if nackErr := msg.Nack(true); nackErr != nil {
				log.Printf("Failed to nack rate limited job: %v", nackErr)
			}
			// Return error to signal worker to wait before processing next job
			return fmt.Errorf("rate limited (will retry): %w", err)
		}
	}

	// For other errors, use standard retry logic
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("%s job %s failed (attempt %d/%d): %v, will retry", jobType, job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	log.Printf("%s job %s failed after %d retries: %v, sending to DLQ", jobType, job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// delayedRetry copies the job with an incremented retry count and a NotBefore
// so the delayed exchange holds it until due.
func (p *JobProcessor) delayedRetry(job *queue.Job, notBefore time.Time) *queue.Job {
	return &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		HabitID:    job.HabitID,
		AnalysisID: job.AnalysisID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}
}
