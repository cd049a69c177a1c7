package validation

import (
	"testing"
)

func TestValidateReminderTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"07:00", false},
		{"00:00", false},
		{"23:59", false},
		{"24:00", true},
		{"12:60", true},
		{"7:00", true},
		{"07:0", true},
		{"0700", true},
		{"", true},
		{"ab:cd", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := ValidateReminderTime(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReminderTime(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFrequency(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"daily", "weekly", "custom"} {
		if err := ValidateFrequency(valid); err != nil {
			t.Errorf("ValidateFrequency(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "monthly", "DAILY"} {
		if err := ValidateFrequency(invalid); err == nil {
			t.Errorf("ValidateFrequency(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateFitnessLevel(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"beginner", "intermediate", "advanced"} {
		if err := ValidateFitnessLevel(valid); err != nil {
			t.Errorf("ValidateFitnessLevel(%q) = %v, want nil", valid, err)
		}
	}
	if err := ValidateFitnessLevel("expert"); err == nil {
		t.Error("ValidateFitnessLevel(\"expert\") = nil, want error")
	}
}

func TestValidateScheduleDays(t *testing.T) {
	t.Parallel()

	if err := ValidateScheduleDays([]int{1, 3, 7}); err != nil {
		t.Errorf("ValidateScheduleDays([1 3 7]) = %v, want nil", err)
	}
	if err := ValidateScheduleDays(nil); err != nil {
		t.Errorf("ValidateScheduleDays(nil) = %v, want nil", err)
	}
	for _, invalid := range [][]int{{0}, {8}, {1, 9}} {
		if err := ValidateScheduleDays(invalid); err == nil {
			t.Errorf("ValidateScheduleDays(%v) = nil, want error", invalid)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"strips control characters", "he\x00llo", "hello"},
		{"keeps newlines and tabs", "a\n\tb", "a\n\tb"},
		{"empty after trim", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
