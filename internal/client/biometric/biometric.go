// Package biometric provides the platform biometric prompt used to unlock
// stored credentials.
//
// The prompt itself lives outside the client: AgentClient asks a local agent
// over gRPC (service biometric.v1.Agent). The agent side is AgentServer,
// which fronts any Authenticator; TerminalAuthenticator is the one shipped
// for hosts without biometric hardware and re-prompts the device passphrase.
//
// Every failure is a *common.BiometricError.
package biometric

import (
	"context"

	"github.com/dmitrijs2005/authflow/internal/common"
)

// Authenticator shows a biometric prompt with the given reason and reports
// whether the user passed it.
type Authenticator interface {
	Authenticate(ctx context.Context, reason string) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, reason string) error

func (f AuthenticatorFunc) Authenticate(ctx context.Context, reason string) error {
	return f(ctx, reason)
}

func biometricError(reason common.BiometricReason, err error) *common.BiometricError {
	return &common.BiometricError{Reason: reason, Err: err}
}
