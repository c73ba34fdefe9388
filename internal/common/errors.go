// Package common defines shared constants and the error taxonomy used by the
// identity, profile and orchestration layers. Callers match sentinels with
// errors.Is and the typed errors with errors.As.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrMutationFailed reports a malformed or missing GraphQL payload, or a
	// transport failure during registration.
	ErrMutationFailed = errors.New("mutation failed")

	// ErrAuthenticationFailed is the generic identity failure.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRecoveryForbidden means the recovery target is not eligible for a
	// password reset (for example, the email is not on file).
	ErrRecoveryForbidden = errors.New("recovery forbidden")

	// ErrUnknown carries no actionable context.
	ErrUnknown = errors.New("unknown error")

	// ErrBiometricEnabled is emitted when a biometric prompt succeeded but no
	// password has been stored yet: biometric unlock is now enabled, but no
	// login happened. It matches ErrUnknown as well.
	ErrBiometricEnabled = fmt.Errorf("biometric auth enabled, password login required: %w", ErrUnknown)

	// ErrNotFound is returned by stores when a key is absent.
	ErrNotFound = errors.New("not found")
)

// AuthError is an identity-provider failure. Err is one of the sentinels
// above when the failure maps onto one; provider-specific failures leave it
// nil and carry the provider's code and summary.
type AuthError struct {
	Code    string
	Summary string
	Err     error
}

// NewAuthError wraps a sentinel as an AuthError.
func NewAuthError(err error) *AuthError {
	return &AuthError{Err: err}
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil && e.Code != "":
		return fmt.Sprintf("auth error: %v (%s: %s)", e.Err, e.Code, e.Summary)
	case e.Err != nil:
		return "auth error: " + e.Err.Error()
	case e.Code != "":
		return fmt.Sprintf("auth error: %s: %s", e.Code, e.Summary)
	default:
		return "auth error"
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// BiometricReason classifies a failed biometric prompt.
type BiometricReason string

const (
	BiometricFailed       BiometricReason = "failed"
	BiometricUserCancel   BiometricReason = "user_cancel"
	BiometricNotAvailable BiometricReason = "not_available"
	BiometricLockout      BiometricReason = "lockout"
)

// BiometricError is a failed platform biometric prompt.
type BiometricError struct {
	Reason BiometricReason
	Err    error
}

func (e *BiometricError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("biometric auth error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("biometric auth error: %s", e.Reason)
}

func (e *BiometricError) Unwrap() error { return e.Err }
