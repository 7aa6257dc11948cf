// Package schedules implements the schedule lifecycle spanning the
// configuration-storage service and the scheduler service.
package schedules

import (
	"errors"
	"fmt"

	"github.com/keboola/flowkit/pkg/models"
)

var (
	// ErrScheduleNotFound is returned when a schedule configuration id does
	// not correspond to an existing configuration.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrEmptyCronTab is returned when a schedule is submitted without a
	// cron expression.
	ErrEmptyCronTab = errors.New("cron expression cannot be empty")

	// ErrMissingTarget is returned when the schedule target is incomplete.
	ErrMissingTarget = errors.New("schedule target component and configuration are required")
)

// ActivationError reports a failed scheduler-service activation after the
// backing configuration was already handled. It always carries the original
// activation failure; compensation failures are logged, never surfaced.
type ActivationError struct {
	ConfigurationID string
	Err             error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("failed to activate schedule for configuration %s: %v", e.ConfigurationID, e.Err)
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a caller-correctable input error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCronTab) ||
		errors.Is(err, ErrMissingTarget) ||
		errors.Is(err, models.ErrInvalidCronTab) ||
		errors.Is(err, models.ErrInvalidScheduleState)
}
