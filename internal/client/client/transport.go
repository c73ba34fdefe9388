package client

import (
	"net/http"

	"github.com/dmitrijs2005/authflow/internal/client/identity"
	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/dmitrijs2005/authflow/internal/logging"
)

// authTransport authorizes outgoing requests. A stored token the provider
// rejects is renewed before the request goes out; a failed renewal aborts
// the request with the renewal error. Without a stored token, or with a
// rejected one and nothing to renew from, the request proceeds
// unauthenticated.
type authTransport struct {
	base     http.RoundTripper
	apiKey   string
	provider identity.Provider
	log      logging.Logger
}

func newAuthTransport(base http.RoundTripper, apiKey string, provider identity.Provider, log logging.Logger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, apiKey: apiKey, provider: provider, log: log}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)

	if t.apiKey != "" {
		req.Header.Set(common.APIKeyHeaderName, t.apiKey)
	}

	if t.provider == nil {
		return t.base.RoundTrip(req)
	}

	token, ok := t.provider.AccessToken(ctx)
	if !ok {
		return t.base.RoundTrip(req)
	}

	if !t.provider.ValidateToken(ctx, token) {
		if !t.provider.CanRenew(ctx) {
			t.log.Debug(ctx, "stored access token rejected and not renewable, sending unauthenticated")
			return t.base.RoundTrip(req)
		}
		t.log.Debug(ctx, "stored access token rejected, renewing")
		renewed, err := t.provider.RenewToken(ctx)
		if err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, err
		}
		token = renewed
	}

	req.Header.Set(common.AuthorizationHeaderName, token)
	return t.base.RoundTrip(req)
}
