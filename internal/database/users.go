package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, name, height_cm,
			weight_kg, fitness_level, goals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	goalsJSON, err := json.Marshal(user.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Name,
		user.HeightCM,
		user.WeightKG,
		string(user.FitnessLevel),
		goalsJSON,
		now,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	var goalsJSON []byte
	var fitnessLevel sql.NullString

	query := `
		SELECT id, email, username, password_hash, name, height_cm, weight_kg,
			fitness_level, goals, created_at, updated_at
		FROM users ` + where

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&user.HeightCM,
		&user.WeightKG,
		&fitnessLevel,
		&goalsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if fitnessLevel.Valid {
		user.FitnessLevel = models.FitnessLevel(fitnessLevel.String)
	}
	if len(goalsJSON) > 0 {
		if err := json.Unmarshal(goalsJSON, &user.Goals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
		}
	}

	return user, nil
}

// Update updates a user's profile fields
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, height_cm = $3, weight_kg = $4, fitness_level = $5,
			goals = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at
	`

	goalsJSON, err := json.Marshal(user.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.HeightCM,
		user.WeightKG,
		string(user.FitnessLevel),
		goalsJSON,
		time.Now(),
	).Scan(&user.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}
