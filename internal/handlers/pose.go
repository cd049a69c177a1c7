package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/middleware"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/queue"
	"github.com/wilbertliawantara/fitness-companion/internal/validation"
)

// PoseHandler handles pose analysis ingestion and retrieval
type PoseHandler struct {
	poseRepo    *database.PoseRepository
	sessionRepo *database.SessionRepository
	jobQueue    queue.JobQueue
	logger      *zap.Logger
}

// NewPoseHandler creates a new pose handler. jobQueue may be nil; analyses
// are then stored without queuing feedback generation.
func NewPoseHandler(poseRepo *database.PoseRepository, sessionRepo *database.SessionRepository, jobQueue queue.JobQueue, logger *zap.Logger) *PoseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoseHandler{
		poseRepo:    poseRepo,
		sessionRepo: sessionRepo,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// RegisterRoutes registers pose analysis routes on the given router
func (h *PoseHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/pose", h.CreateAnalysis).Methods("POST")
	r.HandleFunc("/sessions/{id}/pose", h.ListBySession).Methods("GET")
}

// CreateAnalysisRequest represents a pose analysis submission
type CreateAnalysisRequest struct {
	SessionID     uuid.UUID `json:"session_id" validate:"required"`
	ExerciseName  string    `json:"exercise_name" validate:"required,min=1,max=256"`
	FormScore     float64   `json:"form_score" validate:"min=0,max=100"`
	RepCount      int       `json:"rep_count" validate:"min=0"`
	RangeOfMotion float64   `json:"range_of_motion" validate:"min=0"`
}

// CreateAnalysis stores a pose analysis and queues feedback generation
func (h *PoseHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateAnalysisRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()

	// Ownership check: the session id arrives in the body, not the path.
	if _, err := h.sessionRepo.GetByID(ctx, req.SessionID, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Session not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to verify session")
		return
	}

	analysis := &models.PoseAnalysis{
		ID:            uuid.New(),
		SessionID:     req.SessionID,
		ExerciseName:  validation.SanitizeText(req.ExerciseName),
		Timestamp:     time.Now(),
		FormScore:     req.FormScore,
		RepCount:      req.RepCount,
		RangeOfMotion: req.RangeOfMotion,
	}

	if err := h.poseRepo.Create(ctx, analysis); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store analysis")
		return
	}

	if h.jobQueue != nil {
		job := queue.NewPoseFeedbackJob(user.ID, analysis.ID)
		if err := h.jobQueue.Enqueue(ctx, job); err != nil {
			// The analysis is stored; feedback just won't be generated.
			h.logger.Warn("failed_to_enqueue_pose_feedback_job",
				zap.String("analysis_id", analysis.ID.String()),
				zap.Error(err))
		}
	}

	respondJSON(w, http.StatusCreated, analysis)
}

// ListBySession lists pose analyses for a workout session
func (h *PoseHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid session ID")
		return
	}

	ctx := r.Context()
	if _, err := h.sessionRepo.GetByID(ctx, sessionID, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to verify session")
		return
	}

	analyses, err := h.poseRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve analyses")
		return
	}

	respondJSON(w, http.StatusOK, analyses)
}
