package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

const (
	// DefaultMaxHistory is the default number of conversation turns included
	// in the assembled context.
	DefaultMaxHistory = 20
	// RecentWorkoutLimit caps the completed sessions rendered into context.
	RecentWorkoutLimit = 5
	// NotePreviewLength caps workout notes rendered into context.
	NotePreviewLength = 50
)

// FallbackMessage is returned to the user when the completion provider is
// unreachable. The exchange is not recorded as conversation history.
const FallbackMessage = "I'm having trouble reaching my coaching brain right now. " +
	"Keep moving, and ask me again in a minute!"

// FallbackMotivation is the static motivation message used when the
// completion provider is unreachable.
const FallbackMotivation = "Every workout counts. Show up today and your future self will thank you!"

const coachSystemPrompt = "You are an encouraging, knowledgeable fitness coach. " +
	"Use the athlete context below to give specific, actionable answers. " +
	"Keep replies concise and positive."

const motivationSystemPrompt = "You are an energetic fitness coach writing short motivational messages."

// Assembler builds the per-user context for coach chat requests and records
// the resulting exchanges. It is stateless; all reads and writes go through
// the injected stores, and callers supply the clock.
type Assembler struct {
	users      database.UserReader
	sessions   database.SessionReader
	habits     database.HabitReader
	turns      database.ConversationStore
	provider   Provider
	maxHistory int
	logger     *zap.Logger
}

// NewAssembler creates a context assembler. maxHistory values of zero or
// below fall back to DefaultMaxHistory.
func NewAssembler(
	users database.UserReader,
	sessions database.SessionReader,
	habits database.HabitReader,
	turns database.ConversationStore,
	provider Provider,
	maxHistory int,
	logger *zap.Logger,
) *Assembler {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		users:      users,
		sessions:   sessions,
		habits:     habits,
		turns:      turns,
		provider:   provider,
		maxHistory: maxHistory,
		logger:     logger,
	}
}

// BuildContext assembles the natural-language context blob for one user:
// identity, goals, recent completed workouts, active habits, and the most
// recent conversation turns across all of the user's sessions. Sections with
// no data are omitted entirely. The result is rebuilt on every call and
// never persisted.
func (a *Assembler) BuildContext(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user profile: %w", err)
	}

	parts := []string{
		"User: " + user.DisplayName(),
		"Fitness Level: " + string(user.Level()),
	}

	if len(user.Goals) > 0 {
		parts = append(parts, "Goals: "+strings.Join(user.Goals, ", "))
	}

	recent, err := a.sessions.RecentCompleted(ctx, userID, RecentWorkoutLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load recent workouts: %w", err)
	}
	if len(recent) > 0 {
		parts = append(parts, "\nRecent Workouts:")
		for _, s := range recent {
			parts = append(parts, renderSession(s))
		}
	}

	active, err := a.habits.GetByUserID(ctx, userID, true)
	if err != nil {
		return "", fmt.Errorf("failed to load active habits: %w", err)
	}
	if len(active) > 0 {
		parts = append(parts, "\nActive Habits:")
		for _, h := range active {
			parts = append(parts, fmt.Sprintf("- %s: %d day streak, %d total completions",
				h.Name, h.CurrentStreak, h.TotalCompletions))
		}
	}

	history, err := a.turns.RecentByUser(ctx, userID, a.maxHistory)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation history: %w", err)
	}
	if len(history) > 0 {
		parts = append(parts, "\nRecent Conversation:")
		// Fetched most-recent-first; rendered oldest-first.
		for i := len(history) - 1; i >= 0; i-- {
			t := history[i]
			parts = append(parts, fmt.Sprintf("%s: %s", t.Role, t.Content))
		}
	}

	return strings.Join(parts, "\n"), nil
}

// RecordTurn appends one immutable conversation turn. An empty sessionID is
// stored under the default session.
func (a *Assembler) RecordTurn(ctx context.Context, userID uuid.UUID, sessionID string, role models.TurnRole, content string, tokens *int, model string, now time.Time) error {
	turn := &models.ConversationTurn{
		ID:         uuid.New(),
		UserID:     userID,
		SessionID:  sessionID,
		Role:       role,
		Content:    content,
		Timestamp:  now,
		TokensUsed: tokens,
		Model:      model,
	}
	if err := a.turns.Append(ctx, turn); err != nil {
		return fmt.Errorf("failed to record conversation turn: %w", err)
	}
	return nil
}

// ChatResult is the outcome of one coach chat exchange.
type ChatResult struct {
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
}

// Chat runs one coach exchange: assemble context, call the completion
// provider, and record both halves of the exchange. If the provider fails,
// the static fallback message is returned and nothing is recorded.
func (a *Assembler) Chat(ctx context.Context, userID uuid.UUID, sessionID, message string, now time.Time) (*ChatResult, error) {
	if sessionID == "" {
		sessionID = models.DefaultChatSession
	}

	userContext, err := a.BuildContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	reply, err := a.provider.Chat(ctx, []ChatMessage{
		{Role: "system", Content: coachSystemPrompt + "\n\n" + userContext},
		{Role: "user", Content: message},
	})
	if err != nil {
		a.logger.Warn("completion_failed_using_fallback",
			zap.String("user_id", userID.String()),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return &ChatResult{
			SessionID: sessionID,
			Message:   FallbackMessage,
			Fallback:  true,
		}, nil
	}

	total := estimateTokens(userContext, message, reply)
	userShare := total / 2
	assistantShare := total / 2
	model := a.provider.Model()

	if err := a.RecordTurn(ctx, userID, sessionID, models.TurnRoleUser, message, &userShare, model, now); err != nil {
		return nil, err
	}
	// The assistant half is timestamped strictly after the user half so the
	// pair keeps its order in timestamp-sorted reads.
	if err := a.RecordTurn(ctx, userID, sessionID, models.TurnRoleAssistant, reply, &assistantShare, model, now.Add(time.Millisecond)); err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID:  sessionID,
		Message:    reply,
		Model:      model,
		TokensUsed: total,
	}, nil
}

// Motivation generates a short motivational message based on the user's
// training volume over the past week. Provider failures degrade to a static
// message rather than an error.
func (a *Assembler) Motivation(ctx context.Context, userID uuid.UUID, now time.Time) (string, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user profile: %w", err)
	}

	count, err := a.sessions.CountSince(ctx, userID, now.AddDate(0, 0, -7))
	if err != nil {
		return "", fmt.Errorf("failed to count recent sessions: %w", err)
	}

	prompt := fmt.Sprintf(
		"Write a short motivational message (2-3 sentences) for %s, a %s level athlete who completed %d workouts in the past week.",
		user.DisplayName(), user.Level(), count)

	reply, err := a.provider.Chat(ctx, []ChatMessage{
		{Role: "system", Content: motivationSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		a.logger.Warn("motivation_completion_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return FallbackMotivation, nil
	}
	return reply, nil
}

// PoseFeedback generates form feedback text for one pose analysis. Provider
// errors are returned so callers can retry or substitute
// StaticPoseFeedback.
func (a *Assembler) PoseFeedback(ctx context.Context, analysis *models.PoseAnalysis) (string, error) {
	prompt := fmt.Sprintf(
		"An athlete just performed %s. Pose analysis results: form score %.0f/100, %d reps, range of motion %.0f%%. "+
			"Give concise, encouraging form feedback (2-3 sentences) with one concrete improvement tip.",
		analysis.ExerciseName, analysis.FormScore, analysis.RepCount, analysis.RangeOfMotion)

	reply, err := a.provider.Chat(ctx, []ChatMessage{
		{Role: "system", Content: coachSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate pose feedback: %w", err)
	}
	return reply, nil
}

// StaticPoseFeedback is the fallback feedback used when the completion
// provider cannot be reached for a pose analysis.
func StaticPoseFeedback(formScore float64) string {
	if formScore >= 80 {
		return "Great form! Keep up the consistent technique."
	}
	return "Good effort! Focus on controlled reps through the full range of motion."
}

func renderSession(s *models.WorkoutSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s: %d min", s.CompletedAt.Format("2006-01-02"), s.DurationMinutes)
	if s.CaloriesBurned != nil {
		fmt.Fprintf(&b, ", %d cal", *s.CaloriesBurned)
	}
	if len(s.ExercisesCompleted) > 0 {
		names := make([]string, 0, len(s.ExercisesCompleted))
		for _, ex := range s.ExercisesCompleted {
			names = append(names, ex.Name)
		}
		fmt.Fprintf(&b, ", exercises: %s", strings.Join(names, ", "))
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, ", notes: %s", TruncateString(s.Notes, NotePreviewLength))
	}
	return b.String()
}

// estimateTokens approximates token cost as the whitespace word count of the
// supplied strings. Good enough for history accounting; billing-grade counts
// come from the provider.
func estimateTokens(parts ...string) int {
	n := 0
	for _, p := range parts {
		n += len(strings.Fields(p))
	}
	return n
}
