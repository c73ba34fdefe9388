package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/authflow/internal/client/biometric"
	"github.com/dmitrijs2005/authflow/internal/client/config"
	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/securestore"
	"github.com/dmitrijs2005/authflow/internal/client/services"
	"github.com/dmitrijs2005/authflow/internal/client/session"
	"github.com/dmitrijs2005/authflow/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeClient struct {
	mu sync.Mutex

	profile     models.AuthProfile
	registerErr error
	step1Err    error
	step2Err    error
	resetStatus models.AuthStatus
	resetErr    error

	LastInput    models.CreateAccountInput
	LastEmail    string
	LastPassword string
	LastReset    string
}

func (f *fakeClient) RegisterUser(ctx context.Context, input models.CreateAccountInput) (models.AuthProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastInput = input
	return f.profile, f.registerErr
}

func (f *fakeClient) LoginStep1(ctx context.Context, email, password string) (models.LoginStep1Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastEmail, f.LastPassword = email, password
	if f.step1Err != nil {
		return models.LoginStep1Response{}, f.step1Err
	}
	return models.LoginStep1Response{SessionToken: "session", Status: "SUCCESS", Profile: f.profile}, nil
}

func (f *fakeClient) LoginStep2(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step2Err != nil {
		return models.AuthProfile{}, f.step2Err
	}
	return step1.Profile, nil
}

func (f *fakeClient) RequestPasswordReset(ctx context.Context, email string) (models.AuthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastReset = email
	return f.resetStatus, f.resetErr
}

func (f *fakeClient) last() (email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LastEmail, f.LastPassword
}

// newTestApp builds an App over an in-memory store. input feeds the prompts.
func newTestApp(t *testing.T, c *fakeClient, bio biometric.Authenticator, input string) (*App, *bytes.Buffer) {
	t.Helper()

	sess := session.New(securestore.NewMemoryStore())
	out := &bytes.Buffer{}
	return &App{
		config:   &config.Config{},
		auth:     services.NewAuthService(c, bio, sess, nil, logging.Nop(), services.Options{}),
		log:      logging.Nop(),
		registry: prometheus.NewRegistry(),
		reader:   rdr(input),
		out:      out,
	}, out
}

// stubPassword makes GetPassword return each of passwords in turn.
func stubPassword(t *testing.T, passwords ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	i := 0
	readPassword = func(int) ([]byte, error) {
		pw := passwords[i%len(passwords)]
		i++
		return []byte(pw), nil
	}
}
