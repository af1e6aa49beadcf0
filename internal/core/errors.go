package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrAmountTooLarge = errors.New("amount must be at most 999999999999.99")
	ErrInvalidDate    = errors.New("date is required (YYYY-MM-DD)")
	ErrDateOutOfRange = errors.New("date must be between 1900-01-01 and 2999-12-31")
	ErrEmptyCategory  = errors.New("category is required")
)

// ValidationError reports caller-correctable input. Its message is safe to
// show to the user as is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an operation that targeted a missing expense.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expense %d not found", e.ID)
}

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// GenericFailureMessage is shown for failures that carry no user-actionable detail.
const GenericFailureMessage = "Could not complete the operation, please try again"

// UserMessage renders err for display: validation messages verbatim, a short
// not-found notice, and a generic text for everything else.
func UserMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return GenericFailureMessage
}
