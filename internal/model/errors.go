package model

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError represents structurally invalid input. Always caller-correctable.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// TemporalError is returned when an instant is earlier than the grace threshold.
type TemporalError struct {
	Field     string
	Instant   time.Time
	Threshold time.Time
}

func (e TemporalError) Error() string {
	return fmt.Sprintf("past-date: %s %s is before %s",
		e.Field, e.Instant.UTC().Format(time.RFC3339), e.Threshold.UTC().Format(time.RFC3339))
}

func NewTemporalError(field string, instant, threshold time.Time) TemporalError {
	return TemporalError{Field: field, Instant: instant, Threshold: threshold}
}

func IsTemporalError(err error) bool {
	var te TemporalError
	return errors.As(err, &te)
}

// ConflictError reports an overlapping scheduled appointment.
type ConflictError struct {
	Field            string
	Message          string
	ConflictingID    string
	ConflictingTitle string
}

func (e ConflictError) Error() string {
	if e.ConflictingTitle != "" {
		return fmt.Sprintf("conflict on %s: %s (overlaps %q)", e.Field, e.Message, e.ConflictingTitle)
	}
	return fmt.Sprintf("conflict on %s: %s", e.Field, e.Message)
}

// NewConflictError constructs a ConflictError naming the appointment that is in the way.
func NewConflictError(field, message string, conflicting *Appointment) ConflictError {
	ce := ConflictError{Field: field, Message: message}
	if conflicting != nil {
		ce.ConflictingID = conflicting.ID
		ce.ConflictingTitle = conflicting.Title
	}
	return ce
}

func IsConflictError(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// NotFoundError represents an id that is missing or not visible to the owner.
type NotFoundError struct {
	Field   string
	Message string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found %s: %s", e.Field, e.Message)
}

func NewNotFoundError(field, message string) NotFoundError {
	return NotFoundError{Field: field, Message: message}
}

func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// AuthorizationError is raised when no owner could be resolved for a request.
type AuthorizationError struct {
	Message string
}

func (e AuthorizationError) Error() string {
	return "unauthorized: " + e.Message
}

func NewAuthorizationError(message string) AuthorizationError {
	return AuthorizationError{Message: message}
}

func IsAuthorizationError(err error) bool {
	var ae AuthorizationError
	return errors.As(err, &ae)
}
