package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/middleware"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
	"github.com/wilbertliawantara/fitness-companion/internal/services/auth"
	"github.com/wilbertliawantara/fitness-companion/internal/validation"
)

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	userRepo *database.UserRepository
	tokens   *auth.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userRepo *database.UserRepository, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, tokens: tokens}
}

// RegisterRoutes registers public auth routes on the given router.
// The router should already have the /api/v1/auth prefix.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
}

// RegisterProtectedRoutes registers routes that require authentication
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
	r.HandleFunc("/me", h.UpdateMe).Methods("PATCH")
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	Username     string   `json:"username" validate:"required,min=3,max=64"`
	Password     string   `json:"password" validate:"required,min=8,max=128"`
	Name         *string  `json:"name,omitempty"`
	FitnessLevel string   `json:"fitness_level,omitempty" validate:"omitempty,fitness_level"`
	Goals        []string `json:"goals,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name         *string  `json:"name,omitempty"`
	HeightCM     *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0"`
	WeightKG     *float64 `json:"weight_kg,omitempty" validate:"omitempty,gt=0"`
	FitnessLevel *string  `json:"fitness_level,omitempty" validate:"omitempty,fitness_level"`
	Goals        []string `json:"goals,omitempty"`
}

// TokenResponse carries an issued access token and its owner
type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new user account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process password")
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		Name:         req.Name,
		FitnessLevel: models.FitnessLevel(req.FitnessLevel),
		Goals:        req.Goals,
	}

	ctx := r.Context()
	if err := h.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Email or username already registered")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create user")
		return
	}

	token, err := h.tokens.Issue(user.ID, time.Now())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusCreated, TokenResponse{Token: token, User: user})
}

// Login authenticates a user and returns an access token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Same response as a bad password; don't leak which accounts exist
			respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load user")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
		return
	}

	token, err := h.tokens.Issue(user.ID, time.Now())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{Token: token, User: user})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateMe updates the authenticated user's profile
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.Name != nil {
		user.Name = req.Name
	}
	if req.HeightCM != nil {
		user.HeightCM = req.HeightCM
	}
	if req.WeightKG != nil {
		user.WeightKG = req.WeightKG
	}
	if req.FitnessLevel != nil {
		user.FitnessLevel = models.FitnessLevel(*req.FitnessLevel)
	}
	if req.Goals != nil {
		user.Goals = req.Goals
	}

	ctx := r.Context()
	if err := h.userRepo.Update(ctx, user); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// decodeAndValidate decodes the JSON body into req and runs struct
// validation, writing the error response itself. Returns false if the
// request was rejected.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return false
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return false
	}

	return true
}
