package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated is returned when the caller credential is missing or cannot be resolved.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a write would double-book a room.
	ErrConflict = errors.New("application: conflict")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// NotFoundError names the entity that a request referenced but that does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// Is lets callers match any NotFoundError against ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

const routineConflictMessage = "a routine already exists for this room at the specified time"

// ConflictError reports that a routine would overlap another routine in the same room.
type ConflictError struct {
	Message string
	// ConflictingID is the routine the candidate collided with.
	ConflictingID string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return routineConflictMessage
	}
	return e.Message
}

// Is lets callers match any ConflictError against ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
