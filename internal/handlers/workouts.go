package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/middleware"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/validation"
)

const defaultSessionPageSize = 20

// WorkoutHandler handles workout routine and session requests
type WorkoutHandler struct {
	routineRepo *database.RoutineRepository
	sessionRepo *database.SessionRepository
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(routineRepo *database.RoutineRepository, sessionRepo *database.SessionRepository) *WorkoutHandler {
	return &WorkoutHandler{routineRepo: routineRepo, sessionRepo: sessionRepo}
}

// RegisterRoutes registers workout routes on the given router
func (h *WorkoutHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/routines", h.ListRoutines).Methods("GET")
	r.HandleFunc("/routines", h.CreateRoutine).Methods("POST")
	r.HandleFunc("/routines/{id}", h.GetRoutine).Methods("GET")
	r.HandleFunc("/routines/{id}", h.DeleteRoutine).Methods("DELETE")
	r.HandleFunc("/sessions", h.ListSessions).Methods("GET")
	r.HandleFunc("/sessions", h.StartSession).Methods("POST")
	r.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}/complete", h.CompleteSession).Methods("POST")
}

// CreateRoutineRequest represents a create routine request
type CreateRoutineRequest struct {
	Name              string            `json:"name" validate:"required,min=1,max=256"`
	Description       string            `json:"description,omitempty" validate:"max=2000"`
	Exercises         []models.Exercise `json:"exercises" validate:"required,min=1,dive"`
	Difficulty        string            `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	EstimatedDuration int               `json:"estimated_duration_minutes,omitempty" validate:"omitempty,gt=0"`
	IsCameraBased     bool              `json:"is_camera_based"`
}

// StartSessionRequest represents a start session request
type StartSessionRequest struct {
	RoutineID   *uuid.UUID `json:"routine_id,omitempty"`
	SessionType string     `json:"session_type" validate:"required,session_type"`
}

// CompleteSessionRequest represents a complete session request
type CompleteSessionRequest struct {
	DurationMinutes    int               `json:"duration_minutes" validate:"required,gt=0"`
	ExercisesCompleted []models.Exercise `json:"exercises_completed,omitempty" validate:"omitempty,dive"`
	CaloriesBurned     *int              `json:"calories_burned,omitempty" validate:"omitempty,gt=0"`
	Notes              string            `json:"notes,omitempty" validate:"max=2000"`
}

// ListRoutines lists the authenticated user's routines
func (h *WorkoutHandler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	routines, err := h.routineRepo.GetByUserID(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve routines")
		return
	}

	respondJSON(w, http.StatusOK, routines)
}

// CreateRoutine creates a workout routine
func (h *WorkoutHandler) CreateRoutine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateRoutineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	routine := &models.WorkoutRoutine{
		ID:                uuid.New(),
		UserID:            user.ID,
		Name:              req.Name,
		Description:       validation.SanitizeText(req.Description),
		Exercises:         req.Exercises,
		Difficulty:        models.Difficulty(req.Difficulty),
		EstimatedDuration: req.EstimatedDuration,
		IsCameraBased:     req.IsCameraBased,
	}

	if err := h.routineRepo.Create(r.Context(), routine); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create routine")
		return
	}

	respondJSON(w, http.StatusCreated, routine)
}

// GetRoutine retrieves a routine by ID
func (h *WorkoutHandler) GetRoutine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid routine ID")
		return
	}

	routine, err := h.routineRepo.GetByID(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Routine not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve routine")
		return
	}

	respondJSON(w, http.StatusOK, routine)
}

// DeleteRoutine removes a routine. Sessions that referenced it keep their
// routine_id; history is not rewritten.
func (h *WorkoutHandler) DeleteRoutine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid routine ID")
		return
	}

	if err := h.routineRepo.Delete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Routine not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete routine")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSessions lists recent workout sessions, newest first
func (h *WorkoutHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := defaultSessionPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 || parsed > 100 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	sessions, err := h.sessionRepo.GetByUserID(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve sessions")
		return
	}

	respondJSON(w, http.StatusOK, sessions)
}

// StartSession begins a workout session
func (h *WorkoutHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	if req.RoutineID != nil {
		if _, err := h.routineRepo.GetByID(ctx, *req.RoutineID, user.ID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", "Routine not found")
				return
			}
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to verify routine")
			return
		}
	}

	session := &models.WorkoutSession{
		ID:          uuid.New(),
		UserID:      user.ID,
		RoutineID:   req.RoutineID,
		SessionType: models.SessionType(req.SessionType),
		StartedAt:   time.Now(),
	}

	if err := h.sessionRepo.Create(ctx, session); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// GetSession retrieves a session by ID
func (h *WorkoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid session ID")
		return
	}

	session, err := h.sessionRepo.GetByID(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// CompleteSession finalizes a session with its results
func (h *WorkoutHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid session ID")
		return
	}

	var req CompleteSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	session, err := h.sessionRepo.GetByID(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve session")
		return
	}
	if session.CompletedAt != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "Session is already completed")
		return
	}

	now := time.Now()
	session.CompletedAt = &now
	session.DurationMinutes = req.DurationMinutes
	session.ExercisesCompleted = req.ExercisesCompleted
	session.CaloriesBurned = req.CaloriesBurned
	session.Notes = validation.SanitizeText(req.Notes)

	if err := h.sessionRepo.Update(ctx, session); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}
