package biometric

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/authflow/internal/common"
	"golang.org/x/term"
)

// DefaultMaxFailures is how many wrong passphrases lock the prompt.
const DefaultMaxFailures = 3

var (
	errNotTerminal   = errors.New("input is not a terminal")
	errNoSecret      = errors.New("device secret is not configured")
	errBadPassphrase = errors.New("passphrase mismatch")
	errLockedOut     = errors.New("too many failed attempts")
)

// TerminalAuthenticator confirms a prompt by asking for the device
// passphrase on a terminal. An empty answer cancels; DefaultMaxFailures
// consecutive mismatches lock it until Reset.
type TerminalAuthenticator struct {
	mu sync.Mutex

	secret      []byte
	fd          int
	out         io.Writer
	maxFailures int
	failures    int

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

func NewTerminalAuthenticator(secret string, fd int, out io.Writer) *TerminalAuthenticator {
	return &TerminalAuthenticator{
		secret:       []byte(secret),
		fd:           fd,
		out:          out,
		maxFailures:  DefaultMaxFailures,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

func (a *TerminalAuthenticator) Authenticate(ctx context.Context, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return biometricError(common.BiometricUserCancel, err)
	}
	if len(a.secret) == 0 {
		return biometricError(common.BiometricNotAvailable, errNoSecret)
	}
	if !a.isTerminal(a.fd) {
		return biometricError(common.BiometricNotAvailable, errNotTerminal)
	}
	if a.failures >= a.maxFailures {
		return biometricError(common.BiometricLockout, errLockedOut)
	}

	fmt.Fprintf(a.out, "%s\nDevice passphrase (empty to cancel): ", reason)
	answer, err := a.readPassword(a.fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return biometricError(common.BiometricFailed, err)
	}

	answer = []byte(strings.TrimSpace(string(answer)))
	if len(answer) == 0 {
		return biometricError(common.BiometricUserCancel, nil)
	}

	if subtle.ConstantTimeCompare(answer, a.secret) != 1 {
		a.failures++
		if a.failures >= a.maxFailures {
			return biometricError(common.BiometricLockout, errLockedOut)
		}
		return biometricError(common.BiometricFailed, errBadPassphrase)
	}

	a.failures = 0
	return nil
}

// Reset clears the failure counter.
func (a *TerminalAuthenticator) Reset() {
	a.mu.Lock()
	a.failures = 0
	a.mu.Unlock()
}

// SetMaxFailures changes the lockout threshold. n <= 0 restores
// DefaultMaxFailures.
func (a *TerminalAuthenticator) SetMaxFailures(n int) {
	if n <= 0 {
		n = DefaultMaxFailures
	}
	a.mu.Lock()
	a.maxFailures = n
	a.mu.Unlock()
}
