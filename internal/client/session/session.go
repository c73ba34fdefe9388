// Package session holds the process-wide authentication state: the current
// user and whether biometric unlock is enabled. Only the auth service
// mutates it; the UI reads it.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/securestore"
	"github.com/dmitrijs2005/authflow/internal/common"
)

// Session is safe for concurrent use.
type Session struct {
	mu               sync.RWMutex
	user             *models.User
	biometricEnabled bool

	store securestore.Store
}

func New(store securestore.Store) *Session {
	return &Session{store: store}
}

// Load restores the biometric flag from the store: it is on when a password
// is stored for the remembered email.
func (s *Session) Load(ctx context.Context) error {
	email, err := s.RememberedEmail(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.BiometricPassword(ctx, email)
	switch {
	case err == nil:
		s.SetBiometricAuthEnabled(true)
		return nil
	case errors.Is(err, common.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *Session) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Session) SetUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
}

// Clear drops the current user.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

func (s *Session) IsBiometricAuthEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.biometricEnabled
}

func (s *Session) SetBiometricAuthEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.biometricEnabled = enabled
}

// RememberedEmail is the email of the last user who logged in on this device.
func (s *Session) RememberedEmail(ctx context.Context) (string, error) {
	return s.store.Get(ctx, common.EmailKey)
}

// BiometricPassword is the password stored for biometric re-login of email.
func (s *Session) BiometricPassword(ctx context.Context, email string) (string, error) {
	return s.store.Get(ctx, passwordKey(email))
}

// Remember stores email as the device's user and, when biometric unlock is
// enabled, its password for later biometric re-login.
func (s *Session) Remember(ctx context.Context, email, password string) error {
	values := map[string]string{common.EmailKey: email}
	if s.IsBiometricAuthEnabled() {
		values[passwordKey(email)] = password
	}
	return s.store.SetMany(ctx, values)
}

// DisableBiometricAuth turns biometric unlock off and forgets the stored
// password. The remembered email stays.
func (s *Session) DisableBiometricAuth(ctx context.Context) error {
	s.SetBiometricAuthEnabled(false)

	email, err := s.RememberedEmail(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, passwordKey(email))
}

func passwordKey(email string) string {
	return common.BiometricPasswordKeyPrefix + email
}
