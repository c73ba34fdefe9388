package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/securestore"
	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/dmitrijs2005/authflow/internal/logging"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested when OIDCConfig.Scopes is empty.
var DefaultScopes = []string{"openid", "profile", "offline_access"}

const (
	recoveryPath = "/api/v1/authn/recovery/password"
	clockSkew    = 30 * time.Second

	// keyRefetchInterval bounds how often an unknown key ID triggers a key
	// set refetch.
	keyRefetchInterval = time.Minute
)

var (
	errNoAuthorizationCode = errors.New("authorize redirect carries no code")
	errStateMismatch       = errors.New("authorize redirect state mismatch")
)

// OIDCConfig describes the authorization server. Issuer, ClientID and
// RedirectURI are required for login and renewal; BaseURL (the org URL) is
// required for password recovery.
type OIDCConfig struct {
	Issuer      string
	ClientID    string
	RedirectURI string
	Scopes      []string
	BaseURL     string
}

func (c OIDCConfig) authorizeURL() string { return strings.TrimRight(c.Issuer, "/") + "/v1/authorize" }
func (c OIDCConfig) tokenURL() string     { return strings.TrimRight(c.Issuer, "/") + "/v1/token" }
func (c OIDCConfig) keysURL() string      { return strings.TrimRight(c.Issuer, "/") + "/v1/keys" }

// OIDCProvider is the Provider backed by a real authorization server.
type OIDCProvider struct {
	*TokenKeeper

	cfg        OIDCConfig
	oauth      *oauth2.Config
	httpClient *http.Client
	log        logging.Logger

	keysMu        sync.Mutex
	keys          jwk.Set
	keysFetchedAt time.Time
	refetchAfter  time.Duration
}

func NewOIDCProvider(cfg OIDCConfig, store securestore.Store, httpClient *http.Client, log logging.Logger) *OIDCProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	p := &OIDCProvider{
		TokenKeeper:  NewTokenKeeper(store),
		cfg:          cfg,
		httpClient:   httpClient,
		log:          log.With("component", "oidc"),
		refetchAfter: keyRefetchInterval,
	}

	if cfg.Issuer != "" && cfg.ClientID != "" && cfg.RedirectURI != "" {
		scopes := cfg.Scopes
		if len(scopes) == 0 {
			scopes = DefaultScopes
		}
		p.oauth = &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.authorizeURL(),
				TokenURL:  cfg.tokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
	}
	return p
}

// oauthContext makes x/oauth2 use the provider's HTTP client.
func (p *OIDCProvider) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *OIDCProvider) RenewToken(ctx context.Context) (string, error) {
	if p.oauth == nil {
		return "", authFailed()
	}

	stateHandle, ok := p.StateHandle(ctx)
	if !ok {
		p.log.Warn(ctx, "token renewal without a stored state handle")
		return "", authFailed()
	}

	tok, err := p.oauth.TokenSource(p.oauthContext(ctx), &oauth2.Token{RefreshToken: stateHandle}).Token()
	if err != nil || tok.AccessToken == "" {
		p.log.Warn(ctx, "token renewal rejected", "error", err)
		return "", authFailed()
	}

	if err := p.SaveSession(ctx, tok.AccessToken, tok.RefreshToken); err != nil {
		p.log.Error(ctx, "persisting renewed token", "error", err)
		return "", authFailed()
	}
	return tok.AccessToken, nil
}

func (p *OIDCProvider) Authenticate(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error) {
	if p.oauth == nil || step1.SessionToken == "" {
		return models.AuthProfile{}, authFailed()
	}

	code, verifier, err := p.authorize(ctx, step1.SessionToken)
	if err != nil {
		p.log.Warn(ctx, "session token exchange rejected", "error", err)
		if isAuthError(err) {
			return models.AuthProfile{}, err
		}
		return models.AuthProfile{}, authFailed()
	}

	tok, err := p.oauth.Exchange(p.oauthContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil || tok.AccessToken == "" {
		p.log.Warn(ctx, "authorization code exchange rejected", "error", err)
		return models.AuthProfile{}, authFailed()
	}

	if err := p.SaveSession(ctx, tok.AccessToken, tok.RefreshToken); err != nil {
		p.log.Error(ctx, "persisting access token", "error", err)
		return models.AuthProfile{}, authFailed()
	}
	return step1.Profile, nil
}

// authorize trades a session token for an authorization code. The server
// answers with a redirect to RedirectURI, which is read, not followed.
func (p *OIDCProvider) authorize(ctx context.Context, sessionToken string) (code, verifier string, err error) {
	state := uuid.NewString()
	verifier = oauth2.GenerateVerifier()

	authURL := p.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("sessionToken", sessionToken),
		oauth2.SetAuthURLParam("prompt", "none"),
		oauth2.SetAuthURLParam("nonce", uuid.NewString()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", "", err
	}

	noRedirect := *p.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	loc, err := resp.Location()
	if err != nil {
		return "", "", fmt.Errorf("authorize: status %s: %w", resp.Status, err)
	}

	q := loc.Query()
	if e := q.Get("error"); e != "" {
		return "", "", &common.AuthError{Code: e, Summary: q.Get("error_description"), Err: common.ErrAuthenticationFailed}
	}
	if q.Get("state") != state {
		return "", "", errStateMismatch
	}
	if code = q.Get("code"); code == "" {
		return "", "", errNoAuthorizationCode
	}
	return code, verifier, nil
}

type recoveryRequest struct {
	Username   string `json:"username"`
	FactorType string `json:"factorType"`
}

type recoveryResponse struct {
	Status string `json:"status"`
}

type providerError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorSummary string `json:"errorSummary"`
}

func (p *OIDCProvider) RecoverPassword(ctx context.Context, email string) (models.AuthStatus, error) {
	if p.cfg.BaseURL == "" {
		return "", authFailed()
	}

	body, err := json.Marshal(recoveryRequest{Username: email, FactorType: "EMAIL"})
	if err != nil {
		return "", authFailed()
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + recoveryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", authFailed()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Warn(ctx, "password recovery request failed", "error", err)
		return "", authFailed()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", authFailed()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var rr recoveryResponse
		if err := json.Unmarshal(raw, &rr); err != nil {
			return "", authFailed()
		}
		return models.ParseAuthStatus(rr.Status), nil
	}

	return "", mapProviderError(resp.StatusCode, raw)
}

// mapProviderError turns an error payload into an AuthError. 403 means the
// recovery target is not eligible.
func mapProviderError(statusCode int, raw []byte) *common.AuthError {
	var pe providerError
	if err := json.Unmarshal(raw, &pe); err != nil || pe.ErrorCode == "" {
		pe.ErrorCode = fmt.Sprintf("HTTP%d", statusCode)
		pe.ErrorSummary = http.StatusText(statusCode)
	}

	ae := &common.AuthError{Code: pe.ErrorCode, Summary: pe.ErrorSummary}
	if statusCode == http.StatusForbidden {
		ae.Err = common.ErrRecoveryForbidden
	}
	return ae
}

// CanRenew reports whether the provider is configured for renewal and a
// state handle is stored.
func (p *OIDCProvider) CanRenew(ctx context.Context) bool {
	if p.oauth == nil {
		return false
	}
	_, ok := p.StateHandle(ctx)
	return ok
}

// ValidateToken checks token's signature against the issuer's key set, its
// expiry and its issuer.
func (p *OIDCProvider) ValidateToken(ctx context.Context, token string) bool {
	if p.cfg.Issuer == "" || token == "" {
		return false
	}

	msg, err := jws.ParseString(token)
	if err != nil || len(msg.Signatures()) == 0 {
		p.log.Debug(ctx, "token rejected", "error", err)
		return false
	}

	set, err := p.keySet(ctx, msg.Signatures()[0].ProtectedHeaders().KeyID())
	if err != nil {
		p.log.Warn(ctx, "fetching key set", "error", err)
		return false
	}

	_, err = jwt.ParseString(token,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(p.cfg.Issuer),
		jwt.WithAcceptableSkew(clockSkew),
	)
	if err != nil {
		p.log.Debug(ctx, "token rejected", "error", err)
		return false
	}
	return true
}

// keySet returns the cached key set. A kid missing from the cached set
// triggers a refetch, at most once per refetchAfter.
func (p *OIDCProvider) keySet(ctx context.Context, kid string) (jwk.Set, error) {
	p.keysMu.Lock()
	defer p.keysMu.Unlock()

	if p.keys != nil {
		if _, ok := p.keys.LookupKeyID(kid); ok || kid == "" {
			return p.keys, nil
		}
		if time.Since(p.keysFetchedAt) < p.refetchAfter {
			return p.keys, nil
		}
		p.log.Debug(ctx, "unknown key id, refetching key set", "kid", kid)
	}

	set, err := jwk.Fetch(ctx, p.cfg.keysURL(), jwk.WithHTTPClient(p.httpClient))
	if err != nil {
		if p.keys != nil {
			return p.keys, nil
		}
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	p.keys = set
	p.keysFetchedAt = time.Now()
	return set, nil
}
