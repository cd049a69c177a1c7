package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/middleware"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/services/ai"
	"github.com/wilbertliawantara/fitness-companion/internal/validation"
)

const maxHistoryPageSize = 100

// ChatHandler handles conversational coaching requests
type ChatHandler struct {
	assembler *ai.Assembler
	turns     *database.ConversationRepository
}

// NewChatHandler creates a new chat handler
func NewChatHandler(assembler *ai.Assembler, turns *database.ConversationRepository) *ChatHandler {
	return &ChatHandler{assembler: assembler, turns: turns}
}

// RegisterRoutes registers chat routes on the given router
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.Chat).Methods("POST")
	r.HandleFunc("/chat/history", h.History).Methods("GET")
	r.HandleFunc("/chat/sessions", h.Sessions).Methods("GET")
	r.HandleFunc("/motivation", h.Motivation).Methods("GET")
}

// ChatRequest represents a chat message from the user
type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=4000"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

// Chat sends a message to the coach and returns the reply
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	message := validation.SanitizeText(req.Message)
	if message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required and cannot be empty after sanitization")
		return
	}

	ctx := r.Context()
	result, err := h.assembler.Chat(ctx, user.ID, req.SessionID, message, time.Now())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process chat message")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// History returns recent conversation turns, oldest first. Pass session_id
// to scope to one session; otherwise turns from all sessions are returned.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := ai.DefaultMaxHistory
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 || parsed > maxHistoryPageSize {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	ctx := r.Context()
	var turns []*models.ConversationTurn
	var err error
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		turns, err = h.turns.RecentBySession(ctx, user.ID, sessionID, limit)
	} else {
		turns, err = h.turns.RecentByUser(ctx, user.ID, limit)
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve conversation history")
		return
	}

	// Storage hands back newest-first; clients read top to bottom.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	respondJSON(w, http.StatusOK, turns)
}

// Sessions lists the user's conversation session IDs
func (h *ChatHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ids, err := h.turns.SessionIDs(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve sessions")
		return
	}
	if ids == nil {
		ids = []string{}
	}

	respondJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// Motivation returns a short motivational message based on recent activity
func (h *ChatHandler) Motivation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	message, err := h.assembler.Motivation(r.Context(), user.ID, time.Now())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to generate motivation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}
