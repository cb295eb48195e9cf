package complaint

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("complaint: validation failed")
	ErrInvalidTransition = errors.New("complaint: invalid status transition")
	ErrNotFound          = errors.New("complaint: not found")
	ErrConflict          = errors.New("complaint: modified by someone else")
	ErrForbidden         = errors.New("complaint: administrator session required")
	// ErrHistoryWrite means the complaint row was updated but its audit trail was not.
	ErrHistoryWrite = errors.New("complaint: change history write failed")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("complaint: invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// TransitionError describes a refused status change.
type TransitionError struct {
	From   string
	Action string
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("complaint: cannot %s from %s: %s", e.Action, e.From, e.Reason)
	}
	return fmt.Sprintf("complaint: cannot %s from %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
