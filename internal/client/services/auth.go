// Package services contains application services for the authflow client.
// This file defines the authentication service: registration, the two-step
// login, password reset and biometric unlock, with outcomes published on two
// broadcast streams.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/authflow/internal/client/biometric"
	"github.com/dmitrijs2005/authflow/internal/client/client"
	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/session"
	"github.com/dmitrijs2005/authflow/internal/client/stream"
	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/dmitrijs2005/authflow/internal/logging"
	"golang.org/x/sync/singleflight"
)

// BiometricPrompt is the reason shown by the biometric prompt.
const BiometricPrompt = "Log in to your account"

// TokenStore forgets the identity provider's stored tokens on logout.
type TokenStore interface {
	ClearTokens(ctx context.Context) error
}

// Options tunes AuthService.
type Options struct {
	// DedupeLogins collapses concurrent logins with identical credentials
	// into one backend round trip. Every caller still gets its own emission.
	DedupeLogins bool
	// Metrics may be nil.
	Metrics *Metrics
	// StreamBuffer is the per-subscriber buffer; zero means
	// stream.DefaultBuffer.
	StreamBuffer int
	// PublishTimeout bounds how long an emission waits on a subscriber
	// whose buffer is full; zero means DefaultPublishTimeout.
	PublishTimeout time.Duration
}

const DefaultPublishTimeout = 10 * time.Second

// AuthService orchestrates the auth flows.
//
// Contract:
//   - Register, LogIn, RequestPasswordReset and RequestBiometricAuthentication
//     return immediately; each resolves to exactly one result on its stream.
//   - Login outcomes (register, login, biometric) go to LoggedInUser; reset
//     outcomes go to PasswordResetRequested.
//   - The session user is set only by a successful flow.
//   - Concurrent commands are independent and unordered.
type AuthService struct {
	client    client.Client
	biometric biometric.Authenticator
	session   *session.Session
	tokens    TokenStore
	log       logging.Logger
	metrics   *Metrics

	loggedIn *stream.Broadcaster[models.User]
	reset    *stream.Broadcaster[struct{}]

	dedupe         bool
	logins         singleflight.Group
	publishTimeout time.Duration

	wg sync.WaitGroup
}

// NewAuthService wires the service. bio and tokens may be nil: biometric
// unlock then reports not_available and LogOut only clears the session.
func NewAuthService(c client.Client, bio biometric.Authenticator, sess *session.Session, tokens TokenStore, l logging.Logger, opts Options) *AuthService {
	buffer := opts.StreamBuffer
	if buffer <= 0 {
		buffer = stream.DefaultBuffer
	}
	publishTimeout := opts.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &AuthService{
		client:    c,
		biometric: bio,
		session:   sess,
		tokens:    tokens,
		log:       l.With("module", "auth_service"),
		metrics:   opts.Metrics,
		loggedIn:  stream.NewBroadcaster[models.User](buffer),
		reset:     stream.NewBroadcaster[struct{}](buffer),
		dedupe:    opts.DedupeLogins,

		publishTimeout: publishTimeout,
	}
}

// LoggedInUser carries the outcome of register, login and biometric flows.
func (s *AuthService) LoggedInUser() *stream.Broadcaster[models.User] { return s.loggedIn }

// PasswordResetRequested carries the outcome of password reset requests.
func (s *AuthService) PasswordResetRequested() *stream.Broadcaster[struct{}] { return s.reset }

// Session is the state this service maintains.
func (s *AuthService) Session() *session.Session { return s.session }

// Register creates a profile and then logs in with the same credentials.
func (s *AuthService) Register(ctx context.Context, input models.CreateAccountInput) {
	s.spawn(ctx, func(ctx context.Context) {
		start := time.Now()
		user, err := s.register(ctx, input)
		s.completeLogin(ctx, flowRegister, input.Email, input.Password, user, err, start)
	})
}

// LogIn runs login step 1 and then step 2 with email and password. The
// outcome is emitted on LoggedInUser; on success the user becomes the
// session user and the credentials are remembered for biometric unlock.
func (s *AuthService) LogIn(ctx context.Context, email, password string) {
	s.spawn(ctx, func(ctx context.Context) {
		start := time.Now()
		user, err := s.combinedLogin(ctx, email, password)
		s.completeLogin(ctx, flowLogin, email, password, user, err, start)
	})
}

// RequestPasswordReset asks for a recovery email. An address that is not
// eligible for recovery reports success, like one that is.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	s.spawn(ctx, func(ctx context.Context) {
		start := time.Now()
		err := s.requestPasswordReset(ctx, email)
		s.metrics.ObserveFlow(flowPasswordReset, err, start)

		r := stream.Success(struct{}{})
		if err != nil {
			s.log.Warn(ctx, "password reset failed", "error", err)
			r = stream.Failure[struct{}](err)
		}
		s.publish(ctx, func(ctx context.Context) error { return s.reset.Publish(ctx, r) })
	})
}

// RequestBiometricAuthentication logs the remembered user in after a
// biometric prompt. Without a stored password the prompt only enables
// biometric unlock and the flow reports common.ErrBiometricEnabled.
func (s *AuthService) RequestBiometricAuthentication(ctx context.Context) {
	s.spawn(ctx, func(ctx context.Context) {
		start := time.Now()

		email, err := s.session.RememberedEmail(ctx)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				s.log.Error(ctx, "reading remembered email", "error", err)
			}
			s.completeLogin(ctx, flowBiometric, "", "", models.User{}, common.ErrUnknown, start)
			return
		}

		if err := s.prompt(ctx); err != nil {
			s.completeLogin(ctx, flowBiometric, "", "", models.User{}, err, start)
			return
		}

		password, err := s.session.BiometricPassword(ctx, email)
		switch {
		case errors.Is(err, common.ErrNotFound):
			s.session.SetBiometricAuthEnabled(true)
			s.completeLogin(ctx, flowBiometric, "", "", models.User{}, common.ErrBiometricEnabled, start)
			return
		case err != nil:
			s.log.Error(ctx, "reading stored password", "error", err)
			s.completeLogin(ctx, flowBiometric, "", "", models.User{}, common.ErrUnknown, start)
			return
		}

		user, err := s.combinedLogin(ctx, email, password)
		s.completeLogin(ctx, flowBiometric, email, password, user, err, start)
	})
}

// LogOut drops the session user and the stored tokens. Biometric
// credentials stay.
func (s *AuthService) LogOut(ctx context.Context) error {
	s.session.Clear()
	if s.tokens == nil {
		return nil
	}
	return s.tokens.ClearTokens(ctx)
}

// Wait blocks until every command started so far has emitted.
func (s *AuthService) Wait() {
	s.wg.Wait()
}

func (s *AuthService) spawn(ctx context.Context, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

func (s *AuthService) register(ctx context.Context, input models.CreateAccountInput) (models.User, error) {
	if _, err := s.client.RegisterUser(ctx, input); err != nil {
		return models.User{}, err
	}
	return s.combinedLogin(ctx, input.Email, input.Password)
}

// combinedLogin runs both login steps. With dedupe on, identical concurrent
// logins share one round trip that runs detached from any single caller's
// context; each caller stops waiting when its own context ends.
func (s *AuthService) combinedLogin(ctx context.Context, email, password string) (models.User, error) {
	if !s.dedupe {
		return s.loginSteps(ctx, email, password)
	}

	ch := s.logins.DoChan(email+"\x00"+password, func() (any, error) {
		return s.loginSteps(context.WithoutCancel(ctx), email, password)
	})

	select {
	case r := <-ch:
		if r.Shared {
			s.log.Debug(ctx, "login shared with a concurrent call")
		}
		user, _ := r.Val.(models.User)
		return user, r.Err
	case <-ctx.Done():
		return models.User{}, ctx.Err()
	}
}

// loginSteps runs step 1 and, only when it succeeds, step 2.
func (s *AuthService) loginSteps(ctx context.Context, email, password string) (models.User, error) {
	step1, err := s.client.LoginStep1(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}

	profile, err := s.client.LoginStep2(ctx, step1)
	if err != nil {
		return models.User{}, err
	}
	return models.NewUser(profile), nil
}

func (s *AuthService) requestPasswordReset(ctx context.Context, email string) error {
	status, err := s.client.RequestPasswordReset(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrRecoveryForbidden) {
			return nil
		}
		var ae *common.AuthError
		if errors.As(err, &ae) {
			return err
		}
		return &common.AuthError{Err: err}
	}

	if status != models.AuthStatusRecoveryChallenge {
		s.log.Warn(ctx, "unexpected recovery status", "status", string(status))
		return common.ErrAuthenticationFailed
	}
	return nil
}

func (s *AuthService) prompt(ctx context.Context) error {
	if s.biometric == nil {
		return &common.BiometricError{Reason: common.BiometricNotAvailable}
	}

	err := s.biometric.Authenticate(ctx, BiometricPrompt)
	if err == nil {
		return nil
	}

	var be *common.BiometricError
	if errors.As(err, &be) {
		return err
	}
	return &common.BiometricError{Reason: common.BiometricFailed, Err: err}
}

// completeLogin records the outcome of a login-type flow, updates the
// session on success and emits on LoggedInUser.
func (s *AuthService) completeLogin(ctx context.Context, flow, email, password string, user models.User, err error, start time.Time) {
	s.metrics.ObserveFlow(flow, err, start)

	if err != nil {
		s.log.Warn(ctx, "login flow failed", "flow", flow, "error", err)
		s.publish(ctx, func(ctx context.Context) error {
			return s.loggedIn.Publish(ctx, stream.Failure[models.User](err))
		})
		return
	}

	s.session.SetUser(user)
	if rerr := s.session.Remember(ctx, email, password); rerr != nil {
		s.log.Warn(ctx, "remembering credentials", "error", rerr)
	}
	s.log.Info(ctx, "logged in", "flow", flow, "user", user.Profile.ID)

	s.publish(ctx, func(ctx context.Context) error {
		return s.loggedIn.Publish(ctx, stream.Success(user))
	})
}

// publish emits even when the command's context has ended. A subscriber
// that stays full past publishTimeout misses the result.
func (s *AuthService) publish(ctx context.Context, fn func(context.Context) error) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := fn(pctx); err != nil {
		s.log.Error(ctx, "publishing result", "error", err)
	}
}
