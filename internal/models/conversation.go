package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnRole identifies who produced a conversation turn
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
	TurnRoleSystem    TurnRole = "system"
)

// DefaultChatSession is the sentinel session ID used when a caller does
// not supply one.
const DefaultChatSession = "default"

// ConversationTurn is one immutable message in a user's coach chat history.
// Turns are ordered by timestamp within a session and across the whole
// per-user history used for context assembly.
type ConversationTurn struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Role       TurnRole  `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed *int      `json:"tokens_used,omitempty"`
	Model      string    `json:"model,omitempty"`
}
