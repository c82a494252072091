package services

import (
	"errors"
)

// Outcome kinds of the session operations. Match them with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrValidation         = errors.New("validation failed")
	ErrServerRejected     = errors.New("server rejected the request")
	ErrSessionExpired     = errors.New("session expired")
	ErrTransport          = errors.New("server is unreachable")

	// ErrAuthFailure matches every login/register failure that is neither
	// ErrInvalidCredentials nor ErrValidation.
	ErrAuthFailure = errors.New("authentication failed")

	ErrNotAuthenticated = errors.New("not logged in")
	ErrForbidden        = errors.New("administrator rights required")
)

// AuthError is a failed session operation. Message is safe to show to the
// user as is.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *AuthError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthFailure && e.Kind != ErrInvalidCredentials && e.Kind != ErrValidation
}

// ValidationError reports a registration field rejected before any request
// was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
