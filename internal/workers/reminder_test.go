package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/queue"
)

type fakeDueLister struct {
	habits   []*models.Habit
	err      error
	gotFrom  time.Time
	gotUntil time.Time
}

func (f *fakeDueLister) ListDueBeforeAll(_ context.Context, from, until time.Time) ([]*models.Habit, error) {
	f.gotFrom = from
	f.gotUntil = until
	if f.err != nil {
		return nil, f.err
	}
	return f.habits, nil
}

type fakeJobQueue struct {
	jobs       []*queue.Job
	enqueueErr error
}

func (f *fakeJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobQueue) Dequeue(_ context.Context) (*queue.Message, error) { return nil, nil }

func (f *fakeJobQueue) Consume(_ context.Context, _ int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}

func (f *fakeJobQueue) Close() error { return nil }

func (f *fakeJobQueue) HealthCheck(_ context.Context) error { return nil }

var _ queue.JobQueue = (*fakeJobQueue)(nil)

func TestScanOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 6, 58, 0, 0, time.UTC)
	reminderAt := time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)

	habit := &models.Habit{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Name:           "morning run",
		IsActive:       true,
		NextReminderAt: &reminderAt,
	}

	lister := &fakeDueLister{habits: []*models.Habit{habit}}
	jq := &fakeJobQueue{}
	scanner := NewReminderScanner(jq, lister, 5*time.Minute, nil)

	enqueued, err := scanner.ScanOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("ScanOnce returned error: %v", err)
	}
	if enqueued != 1 {
		t.Fatalf("enqueued = %d, want 1", enqueued)
	}

	if !lister.gotFrom.Equal(now) || !lister.gotUntil.Equal(now.Add(5*time.Minute)) {
		t.Errorf("scan window = [%v, %v), want [%v, %v)", lister.gotFrom, lister.gotUntil, now, now.Add(5*time.Minute))
	}

	job := jq.jobs[0]
	if job.Type != queue.JobTypeReminderDispatch {
		t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeReminderDispatch)
	}
	if job.HabitID == nil || *job.HabitID != habit.ID {
		t.Errorf("job habit ID = %v, want %s", job.HabitID, habit.ID)
	}
	if job.UserID != habit.UserID {
		t.Errorf("job user ID = %s, want %s", job.UserID, habit.UserID)
	}
	if job.NotBefore == nil || !job.NotBefore.Equal(reminderAt) {
		t.Errorf("job NotBefore = %v, want %v", job.NotBefore, reminderAt)
	}
	if job.NotAfter == nil || !job.NotAfter.Equal(reminderAt.Add(24*time.Hour)) {
		t.Errorf("job NotAfter = %v, want %v", job.NotAfter, reminderAt.Add(24*time.Hour))
	}
	if got := job.Metadata["reminder_at"]; got != reminderAt.Format(time.RFC3339) {
		t.Errorf("job reminder_at metadata = %v", got)
	}
}

func TestScanOnceEmptyWindow(t *testing.T) {
	t.Parallel()

	jq := &fakeJobQueue{}
	scanner := NewReminderScanner(jq, &fakeDueLister{}, 0, nil)

	enqueued, err := scanner.ScanOnce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ScanOnce returned error: %v", err)
	}
	if enqueued != 0 || len(jq.jobs) != 0 {
		t.Errorf("enqueued %d jobs for an empty window", len(jq.jobs))
	}
}

func TestScanOnceListFailure(t *testing.T) {
	t.Parallel()

	scanner := NewReminderScanner(&fakeJobQueue{}, &fakeDueLister{err: errors.New("db down")}, time.Minute, nil)

	if _, err := scanner.ScanOnce(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error when the due-habit query fails")
	}
}

func TestScanOnceEnqueueFailureContinues(t *testing.T) {
	t.Parallel()

	reminderAt := time.Now().Add(time.Minute)
	lister := &fakeDueLister{habits: []*models.Habit{
		{ID: uuid.New(), UserID: uuid.New(), NextReminderAt: &reminderAt},
		{ID: uuid.New(), UserID: uuid.New(), NextReminderAt: &reminderAt},
	}}
	jq := &fakeJobQueue{enqueueErr: errors.New("broker unavailable")}
	scanner := NewReminderScanner(jq, lister, time.Minute, nil)

	enqueued, err := scanner.ScanOnce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ScanOnce returned error: %v", err)
	}
	if enqueued != 0 {
		t.Errorf("enqueued = %d, want 0 when broker is down", enqueued)
	}
}
