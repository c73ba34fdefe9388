package identity

import (
	"context"

	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/securestore"
	"github.com/golang-jwt/jwt/v5"
)

const (
	mockIssuer  = "authflow-mock"
	mockSubject = "mock-user"
)

var defaultMockSecret = []byte("authflow-mock-signing-key")

// FakeProvider answers every call with canned data: logins always succeed,
// recovery always issues a challenge and tokens are HS256 JWTs signed with a
// local secret. It never touches the network.
type FakeProvider struct {
	*TokenKeeper
	secret []byte
}

// NewFakeProvider uses secret to sign mock tokens; nil picks a built-in key.
func NewFakeProvider(store securestore.Store, secret []byte) *FakeProvider {
	if len(secret) == 0 {
		secret = defaultMockSecret
	}
	return &FakeProvider{TokenKeeper: NewTokenKeeper(store), secret: secret}
}

// MockAccessToken is the fixed token handed out by the fake. It carries no
// expiry, so it is the same string on every call.
func (f *FakeProvider) MockAccessToken() (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  mockIssuer,
		Subject: mockSubject,
	})
	return tok.SignedString(f.secret)
}

func (f *FakeProvider) RenewToken(ctx context.Context) (string, error) {
	tok, err := f.MockAccessToken()
	if err != nil {
		return "", authFailed()
	}
	return tok, nil
}

// CanRenew is always true: the fake mints tokens without a state handle.
func (f *FakeProvider) CanRenew(ctx context.Context) bool { return true }

func (f *FakeProvider) Authenticate(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error) {
	tok, err := f.MockAccessToken()
	if err != nil {
		return models.AuthProfile{}, authFailed()
	}
	if err := f.SaveAccessToken(ctx, tok); err != nil {
		return models.AuthProfile{}, authFailed()
	}
	return step1.Profile, nil
}

func (f *FakeProvider) RecoverPassword(ctx context.Context, email string) (models.AuthStatus, error) {
	return models.AuthStatusRecoveryChallenge, nil
}

func (f *FakeProvider) ValidateToken(ctx context.Context, token string) bool {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return f.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(mockIssuer))
	if err != nil {
		return false
	}
	return parsed.Valid
}

var _ Provider = (*FakeProvider)(nil)
var _ Provider = (*OIDCProvider)(nil)
