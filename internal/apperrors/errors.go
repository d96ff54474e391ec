package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrState indicates that an operation is not legal in the entity's current state.
var ErrState = errors.New("invalid state for operation")

// ErrMissingApproval indicates that an operation requires an approval reference
// and none was supplied. The operation must leave no trace when this is returned.
var ErrMissingApproval = errors.New("approval reference required")

// ErrNoRateAvailable indicates that no exchange rate could be resolved for a
// currency pair at the requested timestamp.
var ErrNoRateAvailable = errors.New("no exchange rate available")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Specialisations of the base taxonomy. Callers discriminate with errors.Is
// against either the specific error or its base.
var (
	ErrUnbalancedEntry  = fmt.Errorf("%w: entry does not balance in functional currency", ErrValidation)
	ErrAccountCycle     = fmt.Errorf("%w: account hierarchy would form a cycle", ErrValidation)
	ErrImmutableField   = fmt.Errorf("%w: field cannot be changed after creation", ErrValidation)
	ErrSummaryPosting   = fmt.Errorf("%w: summary accounts cannot receive postings", ErrValidation)
	ErrInactiveAccount  = fmt.Errorf("%w: account is inactive", ErrValidation)
	ErrPeriodClosed     = fmt.Errorf("%w: period is closed", ErrState)
	ErrPeriodSoftClosed = fmt.Errorf("%w: period is soft-closed", ErrState)
	ErrLockTransition   = fmt.Errorf("%w: period lock transition not allowed", ErrState)
	ErrAlreadyMatched   = fmt.Errorf("%w: target is already reconciled", ErrState)
)

// AppError wraps an underlying error with an HTTP-ish status code and a
// message safe to surface to callers.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError wrapping the given error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}
