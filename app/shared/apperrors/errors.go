// Package apperrors defines the error taxonomy shared by every module.
//
// Handlers map these to transport status codes; services wrap them so
// errors.Is keeps working across layers.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no caller identity could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound covers records that do not exist or are not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrConsistencyFault marks fatal ledger/state faults. Never swallow it.
	ErrConsistencyFault = errors.New("consistency fault")
)

// ValidationError carries a field-level message for the client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// FaultError records which operation observed a consistency fault.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("consistency fault in %s", e.Op)
	}
	return fmt.Sprintf("consistency fault in %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *FaultError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConsistencyFault}
	}
	return []error{ErrConsistencyFault, e.Err}
}

// Fault wraps err as a consistency fault observed by op.
func Fault(op string, err error) error {
	return &FaultError{Op: op, Err: err}
}

// NotFound wraps ErrNotFound with the kind of record that was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// IsDomainFailure reports whether err is a caller-facing failure rather than an
// infrastructure error.
func IsDomainFailure(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrUnauthenticated)
}
