package platform

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a configuration or schedule does not exist at
// the backend. Transport implementations map their 404 responses onto it.
var ErrNotFound = errors.New("not found")

// NotFoundError carries the kind and id of the missing resource.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError builds a NotFoundError for the given resource.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
