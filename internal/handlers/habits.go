package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/habits"
	"github.com/wilbertliawantara/fitness-companion/internal/middleware"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/validation"
)

// HabitHandler handles habit-related requests
type HabitHandler struct {
	habitRepo        *database.HabitRepository
	scheduler        *habits.Scheduler
	defaultHorizonHr int
}

// NewHabitHandler creates a new habit handler
func NewHabitHandler(habitRepo *database.HabitRepository, scheduler *habits.Scheduler, defaultHorizonHr int) *HabitHandler {
	if defaultHorizonHr <= 0 {
		defaultHorizonHr = habits.DefaultLookaheadHours
	}
	return &HabitHandler{
		habitRepo:        habitRepo,
		scheduler:        scheduler,
		defaultHorizonHr: defaultHorizonHr,
	}
}

// RegisterRoutes registers habit routes on the given router.
// The router should already have the /habits prefix.
func (h *HabitHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListHabits).Methods("GET")
	r.HandleFunc("", h.CreateHabit).Methods("POST")
	r.HandleFunc("/upcoming", h.UpcomingReminders).Methods("GET")
	r.HandleFunc("/{id}", h.GetHabit).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateHabit).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteHabit).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteHabit).Methods("POST")
}

// CreateHabitRequest represents a create habit request
type CreateHabitRequest struct {
	Name      string           `json:"name" validate:"required,min=1,max=256"`
	Frequency string           `json:"frequency" validate:"required,frequency"`
	Schedule  *models.Schedule `json:"schedule,omitempty"`
	RoutineID *uuid.UUID       `json:"routine_id,omitempty"`
}

// UpdateHabitRequest represents an update habit request. Streaks and
// reminder timestamps are derived state and deliberately absent here.
type UpdateHabitRequest struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Frequency *string          `json:"frequency,omitempty" validate:"omitempty,frequency"`
	Schedule  *models.Schedule `json:"schedule,omitempty"`
	IsActive  *bool            `json:"is_active,omitempty"`
}

// CompleteHabitResponse pairs the updated habit with the milestone flag
type CompleteHabitResponse struct {
	Habit            *models.Habit `json:"habit"`
	MilestoneReached bool          `json:"milestone_reached"`
	CurrentStreak    int           `json:"current_streak"`
	LongestStreak    int           `json:"longest_streak"`
}

// ListHabits lists the authenticated user's habits
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"

	ctx := r.Context()
	list, err := h.habitRepo.GetByUserID(ctx, user.ID, activeOnly)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve habits")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// CreateHabit creates a habit and computes its first reminder
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateHabitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}
	if err := validateSchedule(req.Schedule); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	habit := &models.Habit{
		ID:        uuid.New(),
		UserID:    user.ID,
		RoutineID: req.RoutineID,
		Name:      req.Name,
		Frequency: models.Frequency(req.Frequency),
		Schedule:  req.Schedule,
		IsActive:  true,
	}

	ctx := r.Context()
	if err := h.scheduler.OnHabitCreated(ctx, habit, time.Now()); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create habit")
		return
	}

	respondJSON(w, http.StatusCreated, habit)
}

// GetHabit retrieves a habit by ID
func (h *HabitHandler) GetHabit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := parseHabitID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	habit, err := h.habitRepo.GetByID(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Habit not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve habit")
		return
	}

	respondJSON(w, http.StatusOK, habit)
}

// UpdateHabit updates a habit. A schedule change goes through the scheduler
// so the reminder is recomputed; name/frequency/active changes do not move
// the reminder.
func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := parseHabitID(w, r)
	if !ok {
		return
	}

	var req UpdateHabitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := validateSchedule(req.Schedule); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	habit, err := h.habitRepo.GetByID(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Habit not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve habit")
		return
	}

	if req.Name != nil {
		name := validation.SanitizeText(*req.Name)
		if name == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		habit.Name = name
	}
	if req.Frequency != nil {
		habit.Frequency = models.Frequency(*req.Frequency)
	}
	if req.IsActive != nil {
		habit.IsActive = *req.IsActive
	}

	if req.Schedule != nil {
		if err := h.scheduler.OnScheduleEdited(ctx, habit, req.Schedule, time.Now()); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update habit")
			return
		}
	} else {
		if err := h.habitRepo.Update(ctx, habit); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update habit")
			return
		}
	}

	respondJSON(w, http.StatusOK, habit)
}

// DeleteHabit permanently removes a habit and its history
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := parseHabitID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.habitRepo.Delete(ctx, id, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Habit not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete habit")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteHabit records a completion, updating streaks and the reminder
func (h *HabitHandler) CompleteHabit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, ok := parseHabitID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	habit, milestone, err := h.scheduler.OnHabitCompleted(ctx, id, user.ID, time.Now())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Habit not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete habit")
		return
	}

	respondJSON(w, http.StatusOK, CompleteHabitResponse{
		Habit:            habit,
		MilestoneReached: milestone,
		CurrentStreak:    habit.CurrentStreak,
		LongestStreak:    habit.LongestStreak,
	})
}

// UpcomingReminders lists active habits due within the horizon, soonest first
func (h *HabitHandler) UpcomingReminders(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	horizon := h.defaultHorizonHr
	if hh := r.URL.Query().Get("horizon_hours"); hh != "" {
		parsed, err := strconv.Atoi(hh)
		if err != nil || parsed <= 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "horizon_hours must be a positive integer")
			return
		}
		horizon = parsed
	}

	ctx := r.Context()
	due, err := h.scheduler.DueBefore(ctx, user.ID, horizon, time.Now())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve upcoming reminders")
		return
	}

	respondJSON(w, http.StatusOK, due)
}

func parseHabitID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid habit ID")
		return uuid.Nil, false
	}
	return id, true
}

// validateSchedule rejects malformed schedules. A nil or empty schedule is
// valid; it simply means no reminder.
func validateSchedule(s *models.Schedule) error {
	if s == nil {
		return nil
	}
	if err := validation.ValidateScheduleDays(s.Days); err != nil {
		return err
	}
	if s.Time != "" {
		return validation.ValidateReminderTime(s.Time)
	}
	return nil
}
