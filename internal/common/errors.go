// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Scan lifecycle errors.
	ErrInvalidWeight        = errors.New("weight must be a positive number of kilograms")
	ErrClassificationFailed = errors.New("classification failed")
	ErrPersistenceFailed    = errors.New("persistence failed")
	ErrPartialSave          = errors.New("scan saved but profile totals were not updated")
	ErrNotWaste             = errors.New("item was not recognized as waste")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// PartialSaveError reports a scan whose history entry was written while the
// profile update that should accompany it was not. EntryID identifies the
// entry that is already stored so callers can reconcile or retry the update.
type PartialSaveError struct {
	Err     error
	EntryID string
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("%s (entry %s): %v", ErrPartialSave.Error(), e.EntryID, e.Err)
}

func (e *PartialSaveError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrPartialSave without losing the underlying cause.
func (e *PartialSaveError) Is(target error) bool {
	return target == ErrPartialSave
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	// Check for specific retryable errors
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Check for retryable error type
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
