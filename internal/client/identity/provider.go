// Package identity wraps the OIDC identity provider behind the token
// lifecycle the auth flows need: session-token exchange, renewal, password
// recovery and token validation.
//
// Two Providers exist. OIDCProvider talks to the real authorization server;
// FakeProvider answers with canned data and is picked by the composition
// root when mock auth is configured. Both persist tokens through the shared
// TokenKeeper.
package identity

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/securestore"
	"github.com/dmitrijs2005/authflow/internal/common"
)

// Provider is the identity provider client. Failures are *common.AuthError.
type Provider interface {
	// RenewToken obtains and persists a fresh access token.
	RenewToken(ctx context.Context) (string, error)
	// Authenticate exchanges step1's session token for an access token and
	// returns step1's embedded profile.
	Authenticate(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error)
	// RecoverPassword starts email-based password recovery for email.
	RecoverPassword(ctx context.Context, email string) (models.AuthStatus, error)
	// ValidateToken reports whether token is acceptable for authorizing requests.
	ValidateToken(ctx context.Context, token string) bool
	// CanRenew reports whether RenewToken has anything to renew from.
	CanRenew(ctx context.Context) bool

	// AccessToken returns the persisted access token, if any.
	AccessToken(ctx context.Context) (string, bool)
	// ClearTokens forgets the persisted access token and state handle.
	ClearTokens(ctx context.Context) error
}

// TokenKeeper persists provider tokens in the secure store. Providers embed
// it.
type TokenKeeper struct {
	store securestore.Store
}

func NewTokenKeeper(store securestore.Store) *TokenKeeper {
	return &TokenKeeper{store: store}
}

func (k *TokenKeeper) AccessToken(ctx context.Context) (string, bool) {
	return k.lookup(ctx, common.AccessTokenKey)
}

// StateHandle is the persisted refresh state of the authorization session.
func (k *TokenKeeper) StateHandle(ctx context.Context) (string, bool) {
	return k.lookup(ctx, common.StateHandleKey)
}

func (k *TokenKeeper) SaveAccessToken(ctx context.Context, token string) error {
	return k.store.Set(ctx, common.AccessTokenKey, token)
}

// SaveSession stores the access token and the state handle together. An
// empty state handle leaves the stored one untouched.
func (k *TokenKeeper) SaveSession(ctx context.Context, accessToken, stateHandle string) error {
	values := map[string]string{common.AccessTokenKey: accessToken}
	if stateHandle != "" {
		values[common.StateHandleKey] = stateHandle
	}
	return k.store.SetMany(ctx, values)
}

func (k *TokenKeeper) ClearTokens(ctx context.Context) error {
	return k.store.Delete(ctx, common.AccessTokenKey, common.StateHandleKey)
}

func (k *TokenKeeper) lookup(ctx context.Context, key string) (string, bool) {
	v, err := k.store.Get(ctx, key)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func authFailed() *common.AuthError {
	return common.NewAuthError(common.ErrAuthenticationFailed)
}

// isAuthError reports whether err is already a normalized provider error.
func isAuthError(err error) bool {
	var ae *common.AuthError
	return errors.As(err, &ae)
}
