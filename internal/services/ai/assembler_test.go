package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

type fakeUserReader struct {
	user *models.User
	err  error
}

func (f *fakeUserReader) GetByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeSessionReader struct {
	sessions []*models.WorkoutSession
	count    int
}

func (f *fakeSessionReader) RecentCompleted(_ context.Context, _ uuid.UUID, limit int) ([]*models.WorkoutSession, error) {
	if len(f.sessions) > limit {
		return f.sessions[:limit], nil
	}
	return f.sessions, nil
}

func (f *fakeSessionReader) CountSince(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return f.count, nil
}

type fakeHabitReader struct {
	habits []*models.Habit
}

func (f *fakeHabitReader) GetByUserID(_ context.Context, _ uuid.UUID, _ bool) ([]*models.Habit, error) {
	return f.habits, nil
}

type fakeConversationStore struct {
	turns []*models.ConversationTurn
}

func (f *fakeConversationStore) Append(_ context.Context, turn *models.ConversationTurn) error {
	f.turns = append(f.turns, turn)
	return nil
}

func (f *fakeConversationStore) RecentByUser(_ context.Context, _ uuid.UUID, limit int) ([]*models.ConversationTurn, error) {
	out := make([]*models.ConversationTurn, len(f.turns))
	copy(out, f.turns)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeProvider struct {
	reply    string
	err      error
	messages []ChatMessage
}

func (f *fakeProvider) Chat(_ context.Context, messages []ChatMessage) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Model() string { return "test-model" }

var _ database.UserReader = (*fakeUserReader)(nil)
var _ database.SessionReader = (*fakeSessionReader)(nil)
var _ database.HabitReader = (*fakeHabitReader)(nil)
var _ database.ConversationStore = (*fakeConversationStore)(nil)
var _ Provider = (*fakeProvider)(nil)

func newTestAssembler(users *fakeUserReader, sessions *fakeSessionReader, habits *fakeHabitReader, turns *fakeConversationStore, provider *fakeProvider) *Assembler {
	return NewAssembler(users, sessions, habits, turns, provider, DefaultMaxHistory, nil)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestBuildContextOmitsEmptySections(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(
		&fakeUserReader{user: &models.User{Username: "lifty"}},
		&fakeSessionReader{},
		&fakeHabitReader{},
		&fakeConversationStore{},
		&fakeProvider{},
	)

	got, err := a.BuildContext(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}

	want := "User: lifty\nFitness Level: beginner"
	if got != want {
		t.Errorf("BuildContext = %q, want %q", got, want)
	}
	for _, header := range []string{"Recent Workouts:", "Active Habits:", "Recent Conversation:", "Goals:"} {
		if strings.Contains(got, header) {
			t.Errorf("BuildContext included %q for a user with no data", header)
		}
	}
}

func TestBuildContextFullProfile(t *testing.T) {
	t.Parallel()

	completed := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	earlier := completed.Add(-48 * time.Hour)
	longNote := strings.Repeat("x", 60)
	cal := 320

	a := newTestAssembler(
		&fakeUserReader{user: &models.User{
			Username:     "lifty",
			Name:         strPtr("Sam"),
			FitnessLevel: models.FitnessLevelIntermediate,
			Goals:        []string{"lose weight", "run 10k"},
		}},
		&fakeSessionReader{sessions: []*models.WorkoutSession{
			{
				CompletedAt:     &completed,
				DurationMinutes: 45,
				CaloriesBurned:  &cal,
				ExercisesCompleted: []models.Exercise{
					{Name: "squat"}, {Name: "deadlift"},
				},
				Notes: longNote,
			},
			{CompletedAt: &earlier, DurationMinutes: 30},
		}},
		&fakeHabitReader{habits: []*models.Habit{
			{Name: "morning run", CurrentStreak: 4, TotalCompletions: 12},
		}},
		&fakeConversationStore{turns: []*models.ConversationTurn{
			{Role: models.TurnRoleUser, Content: "hello", Timestamp: completed.Add(time.Hour)},
			{Role: models.TurnRoleAssistant, Content: "hi there", Timestamp: completed.Add(time.Hour + time.Second)},
		}},
		&fakeProvider{},
	)

	got, err := a.BuildContext(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}

	wantLines := []string{
		"User: Sam",
		"Fitness Level: intermediate",
		"Goals: lose weight, run 10k",
		"- 2024-03-10: 45 min, 320 cal, exercises: squat, deadlift, notes: " + strings.Repeat("x", 50) + "...",
		"- 2024-03-08: 30 min",
		"- morning run: 4 day streak, 12 total completions",
		"user: hello",
		"assistant: hi there",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("BuildContext missing line %q in:\n%s", line, got)
		}
	}

	// Sessions render most-recent-first.
	if strings.Index(got, "2024-03-10") > strings.Index(got, "2024-03-08") {
		t.Error("recent workouts not ordered most-recent-first")
	}
	// Conversation renders oldest-first.
	if strings.Index(got, "user: hello") > strings.Index(got, "assistant: hi there") {
		t.Error("conversation turns not ordered chronologically ascending")
	}
}

func TestBuildContextHistoryWindow(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeConversationStore{}
	for i := 0; i < 25; i++ {
		store.turns = append(store.turns, &models.ConversationTurn{
			Role:      models.TurnRoleUser,
			Content:   fmt.Sprintf("turn-%02d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	a := newTestAssembler(
		&fakeUserReader{user: &models.User{Username: "lifty"}},
		&fakeSessionReader{},
		&fakeHabitReader{},
		store,
		&fakeProvider{},
	)

	got, err := a.BuildContext(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}

	// Turns 0-4 fall outside the 20-turn window; 5-24 appear ascending.
	for i := 0; i < 5; i++ {
		if strings.Contains(got, fmt.Sprintf("turn-%02d", i)) {
			t.Errorf("turn-%02d should be outside the history window", i)
		}
	}
	prev := -1
	for i := 5; i < 25; i++ {
		idx := strings.Index(got, fmt.Sprintf("turn-%02d", i))
		if idx == -1 {
			t.Fatalf("turn-%02d missing from context", i)
		}
		if idx < prev {
			t.Fatalf("turn-%02d out of chronological order", i)
		}
		prev = idx
	}
}

func TestChatRecordsBothTurns(t *testing.T) {
	t.Parallel()

	store := &fakeConversationStore{}
	provider := &fakeProvider{reply: "try three sets of five"}
	a := newTestAssembler(
		&fakeUserReader{user: &models.User{Username: "lifty"}},
		&fakeSessionReader{},
		&fakeHabitReader{},
		store,
		provider,
	)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	result, err := a.Chat(context.Background(), uuid.New(), "", "how should I squat", now)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if result.SessionID != models.DefaultChatSession {
		t.Errorf("SessionID = %q, want %q", result.SessionID, models.DefaultChatSession)
	}
	if result.Message != "try three sets of five" {
		t.Errorf("Message = %q", result.Message)
	}
	if result.Fallback {
		t.Error("Fallback = true for a successful exchange")
	}
	if result.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", result.Model)
	}

	if len(store.turns) != 2 {
		t.Fatalf("recorded %d turns, want 2", len(store.turns))
	}
	userTurn, assistantTurn := store.turns[0], store.turns[1]
	if userTurn.Role != models.TurnRoleUser || assistantTurn.Role != models.TurnRoleAssistant {
		t.Errorf("turn roles = %q, %q", userTurn.Role, assistantTurn.Role)
	}
	if userTurn.SessionID != models.DefaultChatSession {
		t.Errorf("user turn session = %q", userTurn.SessionID)
	}
	if !assistantTurn.Timestamp.After(userTurn.Timestamp) {
		t.Error("assistant turn not timestamped after user turn")
	}

	half := result.TokensUsed / 2
	if userTurn.TokensUsed == nil || *userTurn.TokensUsed != half {
		t.Errorf("user turn tokens = %v, want %d", userTurn.TokensUsed, half)
	}
	if assistantTurn.TokensUsed == nil || *assistantTurn.TokensUsed != half {
		t.Errorf("assistant turn tokens = %v, want %d", assistantTurn.TokensUsed, half)
	}

	if len(provider.messages) != 2 || provider.messages[0].Role != "system" {
		t.Fatalf("provider messages = %+v", provider.messages)
	}
	if !strings.Contains(provider.messages[0].Content, "User: lifty") {
		t.Error("system message does not embed the assembled context")
	}
}

func TestChatFallbackOnProviderFailure(t *testing.T) {
	t.Parallel()

	store := &fakeConversationStore{}
	a := newTestAssembler(
		&fakeUserReader{user: &models.User{Username: "lifty"}},
		&fakeSessionReader{},
		&fakeHabitReader{},
		store,
		&fakeProvider{err: errors.New("connection refused")},
	)

	result, err := a.Chat(context.Background(), uuid.New(), "morning", "hello", time.Now())
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if result.Message != FallbackMessage {
		t.Errorf("Message = %q, want fallback", result.Message)
	}
	if !result.Fallback {
		t.Error("Fallback flag not set")
	}
	if result.SessionID != "morning" {
		t.Errorf("SessionID = %q, want morning", result.SessionID)
	}
	if len(store.turns) != 0 {
		t.Errorf("recorded %d turns for a failed exchange, want 0", len(store.turns))
	}
}

func TestMotivation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider *fakeProvider
		want     string
	}{
		{
			name:     "provider reply passed through",
			provider: &fakeProvider{reply: "crush it today"},
			want:     "crush it today",
		},
		{
			name:     "provider failure degrades to static message",
			provider: &fakeProvider{err: errors.New("timeout")},
			want:     FallbackMotivation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := newTestAssembler(
				&fakeUserReader{user: &models.User{Username: "lifty"}},
				&fakeSessionReader{count: 3},
				&fakeHabitReader{},
				&fakeConversationStore{},
				tt.provider,
			)

			got, err := a.Motivation(context.Background(), uuid.New(), time.Now())
			if err != nil {
				t.Fatalf("Motivation returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Motivation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPoseFeedback(t *testing.T) {
	t.Parallel()

	analysis := &models.PoseAnalysis{
		ExerciseName:  "squat",
		FormScore:     72,
		RepCount:      10,
		RangeOfMotion: 85,
	}

	provider := &fakeProvider{reply: "keep your chest up"}
	a := newTestAssembler(
		&fakeUserReader{user: &models.User{Username: "lifty"}},
		&fakeSessionReader{},
		&fakeHabitReader{},
		&fakeConversationStore{},
		provider,
	)

	got, err := a.PoseFeedback(context.Background(), analysis)
	if err != nil {
		t.Fatalf("PoseFeedback returned error: %v", err)
	}
	if got != "keep your chest up" {
		t.Errorf("PoseFeedback = %q", got)
	}
	if len(provider.messages) != 2 || !strings.Contains(provider.messages[1].Content, "squat") {
		t.Errorf("prompt does not mention the exercise: %+v", provider.messages)
	}

	failing := &fakeProvider{err: errors.New("boom")}
	a = newTestAssembler(
		&fakeUserReader{user: &models.User{Username: "lifty"}},
		&fakeSessionReader{},
		&fakeHabitReader{},
		&fakeConversationStore{},
		failing,
	)
	if _, err := a.PoseFeedback(context.Background(), analysis); err == nil {
		t.Error("PoseFeedback should surface provider errors")
	}
}

func TestStaticPoseFeedback(t *testing.T) {
	t.Parallel()

	if got := StaticPoseFeedback(92); !strings.Contains(got, "Great form") {
		t.Errorf("high score feedback = %q", got)
	}
	if got := StaticPoseFeedback(40); !strings.Contains(got, "Good effort") {
		t.Errorf("low score feedback = %q", got)
	}
}

func TestRecordTurnTokens(t *testing.T) {
	t.Parallel()

	store := &fakeConversationStore{}
	a := newTestAssembler(
		&fakeUserReader{user: &models.User{Username: "lifty"}},
		&fakeSessionReader{},
		&fakeHabitReader{},
		store,
		&fakeProvider{},
	)

	now := time.Now()
	if err := a.RecordTurn(context.Background(), uuid.New(), "s1", models.TurnRoleUser, "hey", intPtr(5), "test-model", now); err != nil {
		t.Fatalf("RecordTurn returned error: %v", err)
	}
	if len(store.turns) != 1 {
		t.Fatalf("recorded %d turns, want 1", len(store.turns))
	}
	turn := store.turns[0]
	if turn.SessionID != "s1" || turn.Model != "test-model" || turn.TokensUsed == nil || *turn.TokensUsed != 5 {
		t.Errorf("unexpected turn: %+v", turn)
	}
	if !turn.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", turn.Timestamp, now)
	}
}
