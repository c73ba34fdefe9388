// Package cli provides the interactive authflow command-line client.
//
// NewApp wires configuration, the encrypted credential store, the identity
// provider, the GraphQL profile client and a biometric authenticator into a
// services.AuthService. App.Run starts a REPL on top of it (and a Prometheus
// endpoint when configured) and blocks until the user exits.
//
// Commands issue a flow on the service and wait for its single outcome on
// the matching stream:
//   - register, login, biometric: LoggedInUser
//   - reset: PasswordResetRequested
//
// See App, runREPL and describeError for details.
package cli
