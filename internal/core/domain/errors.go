package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers.
// Typed errors below wrap these so callers can match with errors.Is.
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or concurrency conflict
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates the input is invalid
	ErrValidation = errors.New("validation failed")

	// ErrCycle indicates a move would make a document its own ancestor
	ErrCycle = errors.New("cycle detected")

	// ErrState indicates the operation is invalid for the current lifecycle state
	ErrState = errors.New("invalid state")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)

// ValidationError is returned before any mutation when input is malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports a slug collision or a lost race.
// Suggestion, when set, is a free alternative the caller may retry with.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
	Suggestion   string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError reports a missing document, space, or publication.
type NotFoundError struct {
	ResourceType string
	ID           string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.ResourceType, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CycleError reports an illegal reparent or a corrupted parent chain.
type CycleError struct {
	NodeID   string
	ParentID string
}

func (e *CycleError) Error() string {
	if e.ParentID == "" {
		return fmt.Sprintf("cycle detected at document %q", e.NodeID)
	}
	return fmt.Sprintf("moving document %q under %q would create a cycle", e.NodeID, e.ParentID)
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// StateError reports a lifecycle transition that is not allowed.
type StateError struct {
	ResourceID string
	State      string
	Operation  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %q: %s", e.Operation, e.ResourceID, e.State)
}

func (e *StateError) Is(target error) bool { return target == ErrState }

// PermissionError is surfaced unchanged from the authorization collaborator.
type PermissionError struct {
	Required Role
	Actual   Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q required, caller has %q", e.Required, e.Actual)
}

func (e *PermissionError) Is(target error) bool { return target == ErrForbidden }

// NewValidationError is a shorthand for field validation failures.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFound is a shorthand for missing resources.
func NewNotFound(resourceType, id string) error {
	return &NotFoundError{ResourceType: resourceType, ID: id}
}
