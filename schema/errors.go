package schema

import (
	"errors"
	"fmt"
)

// Structural errors surfaced by detection. None of them are transient.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnknownMethod    = errors.New("unknown method")
	ErrMalformedInput   = errors.New("malformed input")
)

// ParamError names the detection parameter that failed validation.
type ParamError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidParameter, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidParameter.
func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

// NewParamError returns a ParamError for the given field.
func NewParamError(field, reason string) error {
	return &ParamError{Field: field, Reason: reason}
}

// UnknownMethodError wraps ErrUnknownMethod with the offending name.
func UnknownMethodError(name string) error {
	return fmt.Errorf("%w %q (expected one of range, statistical, seasonal_residual)", ErrUnknownMethod, name)
}

// MalformedInputError wraps ErrMalformedInput with a description.
func MalformedInputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

// IsCallerError reports whether err is one of the structural errors the caller must fix.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrMalformedInput)
}
