package master

import (
	"github.com/core-tools/hsu-buttons/pkg/errors"
)

// ValidateUnitID validates unit ID format and constraints
func ValidateUnitID(id string) error {
	if id == "" {
		return errors.NewValidationError("unit ID cannot be empty", nil)
	}

	if len(id) > 64 {
		return errors.NewValidationError("unit ID cannot exceed 64 characters", nil)
	}

	// Check for invalid characters
	for _, char := range id {
		if !isValidIDChar(char) {
			return errors.NewValidationError("unit ID contains invalid characters: only letters, numbers, hyphens, and underscores are allowed", nil).WithContext("unit_id", id)
		}
	}

	return nil
}

// ValidateLine validates a GPIO line offset
func ValidateLine(line int) error {
	if line < 0 {
		return errors.NewValidationError("GPIO line cannot be negative", nil).WithContext("line", line)
	}
	if line > 511 {
		return errors.NewValidationError("GPIO line out of range", nil).WithContext("line", line).WithContext("valid_range", "0-511")
	}
	return nil
}

func isValidIDChar(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == '-' || char == '_'
}
