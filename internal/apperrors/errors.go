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

// ErrForbidden indicates that the resource exists but belongs to another account.
var ErrForbidden = errors.New("access denied")

// ErrConflict indicates that the request conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrAccountInactive indicates the account has been deactivated (e.g. suspended subscription).
var ErrAccountInactive = errors.New("account is inactive")

// ErrInvalidTransition indicates an order status edge that is not in the transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrInsufficientStock indicates an inventory item cannot satisfy the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrQuotaExceeded indicates the plan's monthly order limit has been reached.
var ErrQuotaExceeded = errors.New("plan quota exceeded")

// ErrCannotReverseReversal indicates an attempt to reverse a reversal transaction.
var ErrCannotReverseReversal = errors.New("cannot reverse a reversal transaction")

// AppError carries an HTTP-ish status code together with the underlying cause.
// Repositories use it for infrastructure failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the cause so errors.Is keeps working through AppError.
func (e *AppError) Unwrap() error {
	return e.Err
}
