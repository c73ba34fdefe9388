package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authflow/internal/client/models"
)

// fakeClient implements client.Client for AuthService unit tests.
type fakeClient struct {
	mu sync.Mutex

	RegisterRet models.AuthProfile
	RegisterErr error

	Step1Ret  models.LoginStep1Response
	Step1Err  error
	step1Gate chan struct{}

	Step2Ret models.AuthProfile
	Step2Err error

	ResetRet models.AuthStatus
	ResetErr error

	registerCalls int
	step1Calls    int
	step2Calls    int
	resetCalls    int

	LastRegister models.CreateAccountInput
	LastEmail    string
	LastPassword string
	LastStep1    models.LoginStep1Response
	LastReset    string
}

func (f *fakeClient) RegisterUser(ctx context.Context, input models.CreateAccountInput) (models.AuthProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	f.LastRegister = input
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeClient) LoginStep1(ctx context.Context, email, password string) (models.LoginStep1Response, error) {
	f.mu.Lock()
	f.step1Calls++
	f.LastEmail = email
	f.LastPassword = password
	gate := f.step1Gate
	ret, err := f.Step1Ret, f.Step1Err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.LoginStep1Response{}, ctx.Err()
		}
	}
	return ret, err
}

func (f *fakeClient) LoginStep2(ctx context.Context, step1 models.LoginStep1Response) (models.AuthProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step2Calls++
	f.LastStep1 = step1
	return f.Step2Ret, f.Step2Err
}

func (f *fakeClient) RequestPasswordReset(ctx context.Context, email string) (models.AuthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	f.LastReset = email
	return f.ResetRet, f.ResetErr
}

func (f *fakeClient) counts() (register, step1, step2, reset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registerCalls, f.step1Calls, f.step2Calls, f.resetCalls
}

type fakeBiometric struct {
	mu         sync.Mutex
	Err        error
	calls      int
	LastReason string
}

func (f *fakeBiometric) Authenticate(ctx context.Context, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.LastReason = reason
	return f.Err
}

func (f *fakeBiometric) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTokens struct {
	mu      sync.Mutex
	Err     error
	cleared int
}

func (f *fakeTokens) ClearTokens(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return f.Err
}
