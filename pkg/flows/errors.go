// Package flows implements the phase/task dependency graph model and the
// flow configuration lifecycle.
package flows

import (
	"errors"
	"fmt"
)

var (
	// ErrFlowNotFound is returned when no flow configuration exists under
	// any supported flow type.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrDuplicateID is returned when two phases or two tasks carry the same
	// explicit id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownPhase is returned when a task or a dependency references a
	// phase id that does not exist in the flow.
	ErrUnknownPhase = errors.New("reference to non-existent phase")

	// ErrCyclicDependency is returned when the phase dependency graph
	// contains a cycle. The error message carries the full cycle path.
	ErrCyclicDependency = errors.New("circular phase dependency")

	// ErrInvalidTask is returned for tasks missing required payload fields.
	ErrInvalidTask = errors.New("invalid task configuration")

	// ErrUnsupportedFlowType is returned when an operation does not support
	// the requested orchestration engine.
	ErrUnsupportedFlowType = errors.New("unsupported flow type for this operation")
)

// ServiceError wraps flow errors with operation context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a structural validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks if an error is a structural validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrUnknownPhase) ||
		errors.Is(err, ErrCyclicDependency) ||
		errors.Is(err, ErrInvalidTask) ||
		errors.Is(err, ErrUnsupportedFlowType)
}
