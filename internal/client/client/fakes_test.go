package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/authflow/internal/client/models"
)

type fakeProvider struct {
	mu sync.Mutex

	token    string
	hasToken bool
	valid    bool

	noRenew    bool
	renewed    string
	renewErr   error
	renewCalls int

	authProfile models.AuthProfile
	authErr     error
	LastStep1   models.LoginStep1Response

	status     models.AuthStatus
	recoverErr error
	LastEmail  string
}

func (f *fakeProvider) RenewToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewCalls++
	return f.renewed, f.renewErr
}

func (f *fakeProvider) Authenticate(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastStep1 = step1
	return f.authProfile, f.authErr
}

func (f *fakeProvider) RecoverPassword(ctx context.Context, email string) (models.AuthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastEmail = email
	return f.status, f.recoverErr
}

func (f *fakeProvider) ValidateToken(ctx context.Context, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid && token == f.token
}

func (f *fakeProvider) CanRenew(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.noRenew
}

func (f *fakeProvider) AccessToken(ctx context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.hasToken
}

func (f *fakeProvider) ClearTokens(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.hasToken = "", false
	return nil
}

type graphQLRequest struct {
	Query     string                     `json:"query"`
	Variables map[string]json.RawMessage `json:"variables"`
}

// fakeGraphQL answers every request with a fixed status and body and keeps
// the last request it saw.
type fakeGraphQL struct {
	*httptest.Server

	mu          sync.Mutex
	status      int
	body        string
	LastRequest graphQLRequest
	LastHeader  http.Header
	calls       int
}

func newFakeGraphQL(t *testing.T, status int, body string) *fakeGraphQL {
	t.Helper()
	g := &fakeGraphQL{status: status, body: body}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		g.mu.Lock()
		g.LastRequest = req
		g.LastHeader = r.Header.Clone()
		g.calls++
		status, body := g.status, g.body
		g.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(g.Close)
	return g
}

func (g *fakeGraphQL) last() (graphQLRequest, http.Header, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.LastRequest, g.LastHeader, g.calls
}
