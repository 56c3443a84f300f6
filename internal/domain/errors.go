package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the stores. Callers match them with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateName      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("user not logged in")
	ErrNetworkFailure     = errors.New("network failure")
)

// ValidationError reports a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NetworkFailure wraps a transport or backend error verbatim.
func NetworkFailure(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
}

// Message returns the text shown to the user next to the offending form.
func Message(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Reason
	case errors.Is(err, ErrDuplicateName):
		return "Username already exists!"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password!"
	case err == ErrPermissionDenied:
		return "Admin access required!"
	case errors.Is(err, ErrPermissionDenied):
		// Wrapped with the specific reason.
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return "Not found!"
	case errors.Is(err, ErrUnauthenticated):
		return "User not logged in"
	default:
		return err.Error()
	}
}

// FieldOf returns the form field a validation error refers to, or "".
func FieldOf(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}
