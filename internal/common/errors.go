// Package common defines shared sentinel errors used across the service
// layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal         = errors.New("internal error")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Auth errors. Invalid credentials covers unknown user, unconfirmed
	// e-mail and wrong password alike; callers must not be able to tell
	// which one occurred.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports a malformed input field. It is always recoverable
// and carries enough detail for the caller to surface a field-level message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}
