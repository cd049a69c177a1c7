package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wilbertliawantara/fitness-companion/internal/habits"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

// UserReader is the read-side contract the context assembler needs
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionReader provides the session history reads used for context assembly
// and motivation messages
type SessionReader interface {
	RecentCompleted(ctx context.Context, userID uuid.UUID, limit int) ([]*models.WorkoutSession, error)
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// HabitReader provides the active-habit read used for context assembly
type HabitReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*models.Habit, error)
}

// ConversationStore is the append/read contract for chat history
type ConversationStore interface {
	Append(ctx context.Context, turn *models.ConversationTurn) error
	RecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserReader        = (*UserRepository)(nil)
	_ SessionReader     = (*SessionRepository)(nil)
	_ HabitReader       = (*HabitRepository)(nil)
	_ ConversationStore = (*ConversationRepository)(nil)
	_ habits.Store      = (*HabitRepository)(nil)
)
