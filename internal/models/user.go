package models

import (
	"time"

	"github.com/google/uuid"
)

// FitnessLevel represents a user's self-reported fitness level
type FitnessLevel string

const (
	FitnessLevelBeginner     FitnessLevel = "beginner"
	FitnessLevelIntermediate FitnessLevel = "intermediate"
	FitnessLevelAdvanced     FitnessLevel = "advanced"
)

// User represents a user account with profile data
type User struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	Name         *string      `json:"name,omitempty"`
	HeightCM     *float64     `json:"height_cm,omitempty"`
	WeightKG     *float64     `json:"weight_kg,omitempty"`
	FitnessLevel FitnessLevel `json:"fitness_level,omitempty"`
	Goals        []string     `json:"goals"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DisplayName returns the user's name, falling back to the account username.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Username
}

// Level returns the user's fitness level, defaulting to beginner when unset.
func (u *User) Level() FitnessLevel {
	if u.FitnessLevel == "" {
		return FitnessLevelBeginner
	}
	return u.FitnessLevel
}
