package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrIncompleteProfile = errors.New("intake profile is incomplete")
	ErrFeatureLocked     = errors.New("feature not unlocked")
	ErrTooManyAttempts   = errors.New("too many generation attempts today")
	ErrUpstream          = errors.New("upstream service failure")
)

// ValidationError reports a user-correctable payload problem with
// field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SequenceError reports an attempt to submit an intake step ahead of the
// user's current level. Steps must be completed in order.
type SequenceError struct {
	RequestedStep int
	CurrentLevel  int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("step %d requires completing step %d first", e.RequestedStep, e.RequestedStep-1)
}

// NextStep is the step the user should be redirected to.
func (e *SequenceError) NextStep() int {
	return e.CurrentLevel + 1
}

// PlanParseError means the model output could not be decoded into a plan.
// It is retryable by re-invoking generation; the raw output is kept for
// logging only and must never reach the client.
type PlanParseError struct {
	Reason string
	Raw    string
}

func (e *PlanParseError) Error() string {
	return "plan response parse failed: " + e.Reason
}
