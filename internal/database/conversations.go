package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

// ConversationRepository handles coach conversation history. Turns are
// append-only; there is no update or delete path.
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Append stores a new conversation turn
func (r *ConversationRepository) Append(ctx context.Context, turn *models.ConversationTurn) error {
	query := `
		INSERT INTO conversation_turns (id, user_id, session_id, role, content,
			timestamp, tokens_used, model)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.SessionID == "" {
		turn.SessionID = models.DefaultChatSession
	}

	var tokens sql.NullInt64
	if turn.TokensUsed != nil {
		tokens = sql.NullInt64{Int64: int64(*turn.TokensUsed), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		turn.ID,
		turn.UserID,
		turn.SessionID,
		string(turn.Role),
		turn.Content,
		turn.Timestamp,
		tokens,
		turn.Model,
	)
	if err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}

	return nil
}

// RecentByUser returns the user's most recent turns across all sessions,
// newest first, limited to limit rows
func (r *ConversationRepository) RecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error) {
	query := `
		SELECT id, user_id, session_id, role, content, timestamp, tokens_used, model
		FROM conversation_turns
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	return r.queryTurns(ctx, query, userID, limit)
}

// RecentBySession returns the most recent turns within one session,
// newest first, limited to limit rows
func (r *ConversationRepository) RecentBySession(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]*models.ConversationTurn, error) {
	query := `
		SELECT id, user_id, session_id, role, content, timestamp, tokens_used, model
		FROM conversation_turns
		WHERE user_id = $1 AND session_id = $2
		ORDER BY timestamp DESC
		LIMIT $3
	`
	return r.queryTurns(ctx, query, userID, sessionID, limit)
}

// SessionIDs returns the distinct session identifiers for a user
func (r *ConversationRepository) SessionIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM conversation_turns WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		sessions = append(sessions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func (r *ConversationRepository) queryTurns(ctx context.Context, query string, args ...any) ([]*models.ConversationTurn, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation turns: %w", err)
	}
	defer rows.Close()

	var turns []*models.ConversationTurn
	for rows.Next() {
		turn := &models.ConversationTurn{}
		var tokens sql.NullInt64
		var model sql.NullString
		err := rows.Scan(
			&turn.ID,
			&turn.UserID,
			&turn.SessionID,
			&turn.Role,
			&turn.Content,
			&turn.Timestamp,
			&tokens,
			&model,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		if tokens.Valid {
			t := int(tokens.Int64)
			turn.TokensUsed = &t
		}
		if model.Valid {
			turn.Model = model.String
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation turns: %w", err)
	}

	return turns, nil
}
