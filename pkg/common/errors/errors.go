package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the jobflow library

var (
	// ErrNotInitialized indicates a scheduler API was used outside the
	// window between initialization and shutdown
	ErrNotInitialized = errors.New("job system is not initialized")

	// ErrUnregisteredWorker indicates the calling goroutine is not one of the
	// scheduler's workers
	ErrUnregisteredWorker = errors.New("caller is not a registered worker")

	// ErrPendingJobs indicates shutdown was requested while jobs were still queued or running
	ErrPendingJobs = errors.New("jobs are still pending")

	// ErrCapacityExceeded indicates that a capacity limit was exceeded
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidState indicates an object was used in a lifecycle state that
	// does not allow the operation
	ErrInvalidState = errors.New("invalid state")
)

// IsContractViolation returns true if the error describes a programming error
// in the host rather than a runtime condition
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrUnregisteredWorker) ||
		errors.Is(err, ErrPendingJobs) ||
		errors.Is(err, ErrInvalidState)
}

// IsResourceExhausted returns true if the error indicates a capacity limit was hit
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrCapacityExceeded)
}

// ValidationError describes a rejected configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for module.field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// OperationError records which operation of which module failed and why.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError wrapping cause.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches free-form detail and returns the same error.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}
