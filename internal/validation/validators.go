package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/wilbertliawantara/fitness-companion/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("fitness_level", validateFitnessLevel); err != nil {
		panic(fmt.Sprintf("failed to register fitness_level validator: %v", err))
	}
	if err := Validate.RegisterValidation("frequency", validateFrequency); err != nil {
		panic(fmt.Sprintf("failed to register frequency validator: %v", err))
	}
	if err := Validate.RegisterValidation("reminder_time", validateReminderTime); err != nil {
		panic(fmt.Sprintf("failed to register reminder_time validator: %v", err))
	}
	if err := Validate.RegisterValidation("difficulty", validateDifficulty); err != nil {
		panic(fmt.Sprintf("failed to register difficulty validator: %v", err))
	}
	if err := Validate.RegisterValidation("session_type", validateSessionType); err != nil {
		panic(fmt.Sprintf("failed to register session_type validator: %v", err))
	}
}

// validateFitnessLevel validates that a string is a valid FitnessLevel enum value
func validateFitnessLevel(fl validator.FieldLevel) bool {
	return ValidateFitnessLevel(fl.Field().String()) == nil
}

// validateFrequency validates that a string is a valid Frequency enum value
func validateFrequency(fl validator.FieldLevel) bool {
	return ValidateFrequency(fl.Field().String()) == nil
}

// validateReminderTime validates a reminder clock string
func validateReminderTime(fl validator.FieldLevel) bool {
	return ValidateReminderTime(fl.Field().String()) == nil
}

// validateDifficulty validates that a string is a valid Difficulty enum value
func validateDifficulty(fl validator.FieldLevel) bool {
	switch models.Difficulty(fl.Field().String()) {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return true
	default:
		return false
	}
}

// validateSessionType validates that a string is a valid SessionType enum value
func validateSessionType(fl validator.FieldLevel) bool {
	switch models.SessionType(fl.Field().String()) {
	case models.SessionTypeCamera, models.SessionTypeManual:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateFitnessLevel validates a FitnessLevel string value
func ValidateFitnessLevel(value string) error {
	switch models.FitnessLevel(value) {
	case models.FitnessLevelBeginner, models.FitnessLevelIntermediate, models.FitnessLevelAdvanced:
		return nil
	default:
		return fmt.Errorf("invalid fitness_level: %s (must be 'beginner', 'intermediate', or 'advanced')", value)
	}
}

// ValidateFrequency validates a Frequency string value
func ValidateFrequency(value string) error {
	switch models.Frequency(value) {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyCustom:
		return nil
	default:
		return fmt.Errorf("invalid frequency: %s (must be 'daily', 'weekly', or 'custom')", value)
	}
}

// ValidateReminderTime validates a local "HH:MM" clock string
func ValidateReminderTime(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return fmt.Errorf("invalid reminder time: %s (must be 'HH:MM')", value)
	}
	hour, minute := 0, 0
	if _, err := fmt.Sscanf(value, "%02d:%02d", &hour, &minute); err != nil {
		return fmt.Errorf("invalid reminder time: %s (must be 'HH:MM')", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid reminder time: %s (hour 00-23, minute 00-59)", value)
	}
	return nil
}

// ValidateScheduleDays validates ISO weekday ordinals (Monday=1 .. Sunday=7)
func ValidateScheduleDays(days []int) error {
	for _, d := range days {
		if d < 1 || d > 7 {
			return fmt.Errorf("invalid schedule day: %d (must be 1-7, Monday=1)", d)
		}
	}
	return nil
}
