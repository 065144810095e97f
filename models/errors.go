package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the machine-checkable error category surfaced to callers.
type ErrorKind string

const (
	ErrKindValidation   ErrorKind = "validation"
	ErrKindNotFound     ErrorKind = "not_found"
	ErrKindTransient    ErrorKind = "transient_store"
	ErrKindCoordination ErrorKind = "coordination_failed"
	ErrKindStream       ErrorKind = "stream"
)

// AppError carries a human-readable message plus a kind the caller can
// branch on. Validation errors are never retried; transient store errors are
// retried only inside the match coordinator.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// KindOf extracts the error kind, defaulting to transient_store for
// unclassified errors so callers treat unknown store failures as retryable.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrKindTransient
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// NewSelfMatchError rejects a like where actor and target are the same user.
func NewSelfMatchError(userID string) *AppError {
	return &AppError{
		Kind:    ErrKindValidation,
		Message: fmt.Sprintf("user %s cannot like themselves", userID),
	}
}

// NewProfileIncompleteError rejects feed loading for an unfinished profile.
func NewProfileIncompleteError(missing []string) *AppError {
	return &AppError{
		Kind:    ErrKindValidation,
		Message: fmt.Sprintf("profile is missing required fields: %s", strings.Join(missing, ", ")),
	}
}

// NewValidationError wraps any other bad-input condition.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: ErrKindValidation, Message: message}
}

// NewNotFoundError reports a missing document.
func NewNotFoundError(what, id string) *AppError {
	return &AppError{
		Kind:    ErrKindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, id),
	}
}

// NewTransientStoreError classifies a store failure as retryable.
func NewTransientStoreError(err error) *AppError {
	return &AppError{Kind: ErrKindTransient, Message: "storage operation failed", Err: err}
}

// NewCoordinationFailedError reports an exhausted retry budget. The
// transactional guarantee means no partial state was written.
func NewCoordinationFailedError(err error) *AppError {
	return &AppError{Kind: ErrKindCoordination, Message: "match coordination failed after retries", Err: err}
}

// NewStreamError reports a terminal subscription failure.
func NewStreamError(err error) *AppError {
	return &AppError{Kind: ErrKindStream, Message: "message subscription failed", Err: err}
}
