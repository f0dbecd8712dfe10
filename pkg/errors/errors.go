package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a daemon error.
// Every failure the daemon can report belongs to exactly one of these.
type ErrorType string

const (
	// Setup errors, fatal before any monitor starts
	ErrorTypeGPIO ErrorType = "gpio"
	ErrorTypePin  ErrorType = "pin"

	// Monitor errors, fatal to the owning monitor
	ErrorTypePoll        ErrorType = "poll"
	ErrorTypeProcessList ErrorType = "process_list"
	ErrorTypeFork        ErrorType = "fork"
	ErrorTypeSpawn       ErrorType = "spawn"
	ErrorTypeSignal      ErrorType = "signal"

	// Coordinator errors
	ErrorTypeJoin ErrorType = "join"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// DomainError represents a structured error with type and context
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	if other, ok := target.(*DomainError); ok {
		return e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Hardware errors
func NewGPIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeGPIO, message, cause)
}

func NewPinError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypePin, message, cause)
}

func NewPollError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypePoll, message, cause)
}

// Process errors
func NewProcessListError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeProcessList, message, cause)
}

func NewForkError(binary string, cause error) *DomainError {
	return NewDomainError(ErrorTypeFork, fmt.Sprintf("unable to fork child process `%s`", binary), cause).
		WithContext("binary", binary)
}

func NewSpawnError(binary string, cause error) *DomainError {
	return NewDomainError(ErrorTypeSpawn, fmt.Sprintf("unable to spawn process `%s`", binary), cause).
		WithContext("binary", binary)
}

func NewSignalError(binary string, cause error) *DomainError {
	return NewDomainError(ErrorTypeSignal, fmt.Sprintf("unable to send signal to process `%s`", binary), cause).
		WithContext("binary", binary)
}

func NewJoinError(unitID string, cause error) *DomainError {
	return NewDomainError(ErrorTypeJoin, fmt.Sprintf("unable to join unit `%s`", unitID), cause).
		WithContext("unit_id", unitID)
}

// Configuration and system errors
func NewValidationError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, cause)
}

func NewConflictError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeConflict, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeIO, message, cause)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeInternal, message, cause)
}

// Error checking helpers

// isType matches any error of errorType anywhere in the tree, including
// every error held by an ErrorCollection.
func isType(err error, errorType ErrorType) bool {
	return errors.Is(err, &DomainError{Type: errorType})
}

func IsGPIOError(err error) bool        { return isType(err, ErrorTypeGPIO) }
func IsPinError(err error) bool         { return isType(err, ErrorTypePin) }
func IsPollError(err error) bool        { return isType(err, ErrorTypePoll) }
func IsProcessListError(err error) bool { return isType(err, ErrorTypeProcessList) }
func IsForkError(err error) bool        { return isType(err, ErrorTypeFork) }
func IsSpawnError(err error) bool       { return isType(err, ErrorTypeSpawn) }
func IsSignalError(err error) bool      { return isType(err, ErrorTypeSignal) }
func IsJoinError(err error) bool        { return isType(err, ErrorTypeJoin) }
func IsValidationError(err error) bool  { return isType(err, ErrorTypeValidation) }
func IsConflictError(err error) bool    { return isType(err, ErrorTypeConflict) }
func IsIOError(err error) bool          { return isType(err, ErrorTypeIO) }
func IsInternalError(err error) bool    { return isType(err, ErrorTypeInternal) }

// IsSetupError reports whether err happened while acquiring hardware,
// before any monitor was started.
func IsSetupError(err error) bool {
	return IsGPIOError(err) || IsPinError(err)
}

// Error aggregation for joined units
type ErrorCollection struct {
	Errors []error
}

func (e *ErrorCollection) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred, first: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorCollection) Unwrap() []error {
	return e.Errors
}

func (e *ErrorCollection) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *ErrorCollection) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ErrorCollection) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors: make([]error, 0),
	}
}
