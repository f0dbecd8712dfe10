package process

import (
	"strings"

	"github.com/core-tools/hsu-buttons/pkg/errors"
)

// ValidateBinaryName checks that name is a bare executable name. Binaries
// are resolved through PATH and matched against process executables by
// base name, so a path here would never match a lookup.
func ValidateBinaryName(name string) error {
	if name == "" {
		return errors.NewValidationError("binary name cannot be empty", nil)
	}
	if strings.TrimSpace(name) != name {
		return errors.NewValidationError("binary name cannot have surrounding whitespace", nil).WithContext("binary", name)
	}
	if strings.ContainsRune(name, '/') {
		return errors.NewValidationError("binary name must not contain a path separator", nil).WithContext("binary", name)
	}
	if name == "." || name == ".." {
		return errors.NewValidationError("binary name is not a file name", nil).WithContext("binary", name)
	}
	return nil
}

// ValidatePID validates a PID returned by a lookup
func ValidatePID(pid int32) error {
	if pid <= 0 {
		return errors.NewValidationError("PID must be positive", nil).WithContext("pid", pid)
	}
	return nil
}
