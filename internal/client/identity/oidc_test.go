package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/securestore"
	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/dmitrijs2005/authflow/internal/logging"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSessionToken = "20111"
	testRedirectURI  = "com.example.app:/callback"
)

type fakeAuthServer struct {
	*httptest.Server
	issuer string

	signingKey jwk.Key
	keysJSON   []byte

	mu               sync.Mutex
	lastRecoveryBody recoveryRequest
	lastVerifier     string
	keyFetches       atomic.Int32
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()

	s := &fakeAuthServer{}
	s.rotateKey(t, "test-key")

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/default/v1/authorize", s.authorize)
	mux.HandleFunc("/oauth2/default/v1/token", s.token)
	mux.HandleFunc("/oauth2/default/v1/keys", func(w http.ResponseWriter, r *http.Request) {
		s.keyFetches.Add(1)
		s.mu.Lock()
		body := s.keysJSON
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/api/v1/authn/recovery/password", s.recovery)

	s.Server = httptest.NewServer(mux)
	s.issuer = s.URL + "/oauth2/default"
	t.Cleanup(s.Close)
	return s
}

// rotateKey replaces the signing key with a fresh one published under kid.
func (s *fakeAuthServer) rotateKey(t *testing.T, kid string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sk, err := jwk.FromRaw(priv)
	require.NoError(t, err)
	require.NoError(t, sk.Set(jwk.KeyIDKey, kid))
	require.NoError(t, sk.Set(jwk.AlgorithmKey, jwa.RS256))

	pk, err := jwk.FromRaw(&priv.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pk.Set(jwk.KeyIDKey, kid))
	require.NoError(t, pk.Set(jwk.AlgorithmKey, jwa.RS256))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pk))
	keysJSON, err := json.Marshal(set)
	require.NoError(t, err)

	s.mu.Lock()
	s.signingKey, s.keysJSON = sk, keysJSON
	s.mu.Unlock()
}

func (s *fakeAuthServer) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, _ := url.Parse(q.Get("redirect_uri"))
	out := target.Query()

	switch {
	case q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "":
		out.Set("error", "invalid_request")
	case q.Get("sessionToken") == testSessionToken:
		out.Set("code", "auth-code-1")
		out.Set("state", q.Get("state"))
	case q.Get("sessionToken") == "wrong-state":
		out.Set("code", "auth-code-1")
		out.Set("state", "forged")
	default:
		out.Set("error", "access_denied")
		out.Set("error_description", "The session token is invalid")
	}

	target.RawQuery = out.Encode()
	w.Header().Set("Location", target.String())
	w.WriteHeader(http.StatusFound)
}

func (s *fakeAuthServer) token(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.PostForm.Get("grant_type") == "authorization_code" && r.PostForm.Get("code") == "auth-code-1":
		s.mu.Lock()
		s.lastVerifier = r.PostForm.Get("code_verifier")
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-1"}`))
	case r.PostForm.Get("grant_type") == "refresh_token" && r.PostForm.Get("refresh_token") == "refresh-1":
		_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-2"}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}
}

func (s *fakeAuthServer) recovery(w http.ResponseWriter, r *http.Request) {
	var body recoveryRequest
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	s.lastRecoveryBody = body
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch body.Username {
	case "test@test.com":
		_, _ = w.Write([]byte(`{"status":"RECOVERY_CHALLENGE","factorType":"EMAIL"}`))
	case "locked@test.com":
		_, _ = w.Write([]byte(`{"status":"LOCKED_OUT"}`))
	case "unknown@test.com":
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errorCode":"E0000006","errorSummary":"You do not have permission to perform the requested action"}`))
	case "garbled@test.com":
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>oops</html>`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorCode":"E0000001","errorSummary":"Api validation failed: username"}`))
	}
}

func (s *fakeAuthServer) sign(t *testing.T, issuer string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().Issuer(issuer).Subject("00u1").Expiration(exp).Build()
	require.NoError(t, err)
	s.mu.Lock()
	key := s.signingKey
	s.mu.Unlock()
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)
	return string(signed)
}

func newProvider(t *testing.T, srv *fakeAuthServer) (*OIDCProvider, *securestore.MemoryStore) {
	t.Helper()
	store := securestore.NewMemoryStore()
	cfg := OIDCConfig{
		Issuer:      srv.issuer,
		ClientID:    "client-1",
		RedirectURI: testRedirectURI,
		BaseURL:     srv.URL,
	}
	return NewOIDCProvider(cfg, store, srv.Client(), logging.Nop()), store
}

func step1(token string) models.LoginStep1Response {
	return models.LoginStep1Response{
		SessionToken: token,
		Status:       "SUCCESS",
		Profile:      models.AuthProfile{FirstName: "x"},
	}
}

func TestOIDC_Authenticate_ExchangesSessionToken(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, store := newProvider(t, srv)
	ctx := context.Background()

	profile, err := p.Authenticate(ctx, step1(testSessionToken))
	require.NoError(t, err)
	assert.Equal(t, "x", profile.FirstName)
	srv.mu.Lock()
	assert.NotEmpty(t, srv.lastVerifier)
	srv.mu.Unlock()

	access, err := store.Get(ctx, common.AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "access-1", access)

	handle, err := store.Get(ctx, common.StateHandleKey)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", handle)
}

func TestOIDC_Authenticate_Rejected(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, store := newProvider(t, srv)
	ctx := context.Background()

	_, err := p.Authenticate(ctx, step1("bogus"))
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)

	var ae *common.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "access_denied", ae.Code)

	_, err = store.Get(ctx, common.AccessTokenKey)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestOIDC_Authenticate_StateMismatch(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, _ := newProvider(t, srv)

	_, err := p.Authenticate(context.Background(), step1("wrong-state"))
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestOIDC_Authenticate_NotConfigured(t *testing.T) {
	p := NewOIDCProvider(OIDCConfig{}, securestore.NewMemoryStore(), nil, logging.Nop())

	_, err := p.Authenticate(context.Background(), step1(testSessionToken))
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestOIDC_RenewToken(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, store := newProvider(t, srv)
	ctx := context.Background()

	_, err := p.RenewToken(ctx)
	require.ErrorIs(t, err, common.ErrAuthenticationFailed, "no state handle yet")

	require.NoError(t, store.Set(ctx, common.StateHandleKey, "refresh-1"))

	tok, err := p.RenewToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok)

	stored, ok := p.AccessToken(ctx)
	require.True(t, ok)
	assert.Equal(t, "access-2", stored)
	handle, _ := p.StateHandle(ctx)
	assert.Equal(t, "refresh-2", handle)
}

func TestOIDC_RenewToken_Rejected(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, store := newProvider(t, srv)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, common.StateHandleKey, "revoked"))

	_, err := p.RenewToken(ctx)
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestOIDC_RecoverPassword(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, _ := newProvider(t, srv)
	ctx := context.Background()

	status, err := p.RecoverPassword(ctx, "test@test.com")
	require.NoError(t, err)
	assert.Equal(t, models.AuthStatusRecoveryChallenge, status)
	srv.mu.Lock()
	assert.Equal(t, recoveryRequest{Username: "test@test.com", FactorType: "EMAIL"}, srv.lastRecoveryBody)
	srv.mu.Unlock()

	status, err = p.RecoverPassword(ctx, "locked@test.com")
	require.NoError(t, err)
	assert.Equal(t, models.AuthStatusLockedOut, status)
}

func TestOIDC_RecoverPassword_Errors(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, _ := newProvider(t, srv)
	ctx := context.Background()

	_, err := p.RecoverPassword(ctx, "unknown@test.com")
	require.ErrorIs(t, err, common.ErrRecoveryForbidden)
	var ae *common.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "E0000006", ae.Code)

	_, err = p.RecoverPassword(ctx, "invalid")
	require.ErrorAs(t, err, &ae)
	assert.Nil(t, ae.Err)
	assert.Equal(t, "E0000001", ae.Code)
	require.NotErrorIs(t, err, common.ErrRecoveryForbidden)

	_, err = p.RecoverPassword(ctx, "garbled@test.com")
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "HTTP500", ae.Code)
}

func TestOIDC_RecoverPassword_NoBaseURL(t *testing.T) {
	p := NewOIDCProvider(OIDCConfig{Issuer: "https://example"}, securestore.NewMemoryStore(), nil, logging.Nop())

	_, err := p.RecoverPassword(context.Background(), "test@test.com")
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestOIDC_ValidateToken(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, _ := newProvider(t, srv)
	ctx := context.Background()

	assert.True(t, p.ValidateToken(ctx, srv.sign(t, srv.issuer, time.Now().Add(time.Hour))))
	assert.False(t, p.ValidateToken(ctx, srv.sign(t, srv.issuer, time.Now().Add(-time.Hour))), "expired")
	assert.False(t, p.ValidateToken(ctx, srv.sign(t, "https://other", time.Now().Add(time.Hour))), "foreign issuer")
	assert.False(t, p.ValidateToken(ctx, "not-a-jwt"))
	assert.False(t, p.ValidateToken(ctx, ""))

	assert.Equal(t, int32(1), srv.keyFetches.Load(), "key set is fetched once")
}

func TestOIDC_ValidateToken_RefetchesKeysAfterRotation(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, _ := newProvider(t, srv)
	p.refetchAfter = 0
	ctx := context.Background()

	require.True(t, p.ValidateToken(ctx, srv.sign(t, srv.issuer, time.Now().Add(time.Hour))))

	srv.rotateKey(t, "test-key-2")
	assert.True(t, p.ValidateToken(ctx, srv.sign(t, srv.issuer, time.Now().Add(time.Hour))))
	assert.Equal(t, int32(2), srv.keyFetches.Load())

	assert.True(t, p.ValidateToken(ctx, srv.sign(t, srv.issuer, time.Now().Add(time.Hour))))
	assert.Equal(t, int32(2), srv.keyFetches.Load(), "known key id served from cache")
}

func TestOIDC_ValidateToken_RefetchIsRateLimited(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, _ := newProvider(t, srv)
	ctx := context.Background()

	require.True(t, p.ValidateToken(ctx, srv.sign(t, srv.issuer, time.Now().Add(time.Hour))))

	srv.rotateKey(t, "test-key-2")
	assert.False(t, p.ValidateToken(ctx, srv.sign(t, srv.issuer, time.Now().Add(time.Hour))))
	assert.Equal(t, int32(1), srv.keyFetches.Load())
}

func TestOIDC_CanRenew(t *testing.T) {
	srv := newFakeAuthServer(t)
	p, store := newProvider(t, srv)
	ctx := context.Background()

	assert.False(t, p.CanRenew(ctx), "no state handle")
	require.NoError(t, store.Set(ctx, common.StateHandleKey, "refresh-1"))
	assert.True(t, p.CanRenew(ctx))

	unconfigured := NewOIDCProvider(OIDCConfig{}, store, nil, logging.Nop())
	assert.False(t, unconfigured.CanRenew(ctx))
}

func TestTokenKeeper_ClearTokens(t *testing.T) {
	store := securestore.NewMemoryStore()
	k := NewTokenKeeper(store)
	ctx := context.Background()

	require.NoError(t, k.SaveSession(ctx, "a", "r"))
	require.NoError(t, k.SaveSession(ctx, "a2", ""))

	tok, ok := k.AccessToken(ctx)
	require.True(t, ok)
	assert.Equal(t, "a2", tok)
	handle, ok := k.StateHandle(ctx)
	require.True(t, ok)
	assert.Equal(t, "r", handle)

	require.NoError(t, k.ClearTokens(ctx))
	_, ok = k.AccessToken(ctx)
	assert.False(t, ok)
	_, ok = k.StateHandle(ctx)
	assert.False(t, ok)
}
