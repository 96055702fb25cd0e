// Package common defines shared constants and sentinel errors used across
// client and server layers of GophDiary. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors. A diary owned by somebody else is reported
	// as ErrorNotFound as well.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("user exists")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")

	// Session errors.
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionUnavailable means the revocation list could not be read or
	// written. The token may be fine; the request is still refused.
	ErrSessionUnavailable = errors.New("session store unavailable")

	// ErrPipelineFailure is matched by every error produced when an external
	// diary capability (summarizer, video synthesizer) or the final persist
	// step fails.
	ErrPipelineFailure = errors.New("diary pipeline failure")
)

// ValidationError is a client-facing validation failure. It matches
// ErrValidation under errors.Is and its message is shown to the client.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
