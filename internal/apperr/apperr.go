// Package apperr holds the error taxonomy shared by the workflow packages.
// Each typed error matches its sentinel through errors.Is, so callers can
// branch on the category without knowing the concrete type.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnauthorized      = errors.New("not authorized")
	ErrNotFound          = errors.New("not found")
)

// ValidationError reports a bad or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransitionError reports an operation on an entity that is not in the
// state the operation requires.
type TransitionError struct {
	Entity string
	ID     int64
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %d: cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// AuthorizationError reports an actor without rights over an entity.
type AuthorizationError struct {
	ActorID int64
	Action  string
	Entity  string
	ID      int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d may not %s %s %d", e.ActorID, e.Action, e.Entity, e.ID)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

// NotFoundError reports an id that does not resolve.
type NotFoundError struct {
	Entity string
	ID     int64
}

func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
