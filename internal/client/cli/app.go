package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/authflow/internal/client/biometric"
	"github.com/dmitrijs2005/authflow/internal/client/client"
	"github.com/dmitrijs2005/authflow/internal/client/config"
	"github.com/dmitrijs2005/authflow/internal/client/identity"
	"github.com/dmitrijs2005/authflow/internal/client/securestore"
	"github.com/dmitrijs2005/authflow/internal/client/services"
	"github.com/dmitrijs2005/authflow/internal/client/session"
	"github.com/dmitrijs2005/authflow/internal/filex"
	"github.com/dmitrijs2005/authflow/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	_ "modernc.org/sqlite"
)

type App struct {
	config   *config.Config
	auth     *services.AuthService
	log      logging.Logger
	registry *prometheus.Registry
	reader   *bufio.Reader
	out      io.Writer
	closers  []io.Closer
}

// NewApp wires the credential store, identity provider, profile client,
// biometric authenticator and auth service described by c.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	a := &App{
		config:   c,
		log:      l,
		registry: prometheus.NewRegistry(),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	store, err := a.openStore(ctx)
	if err != nil {
		l.Error(ctx, "error initializing credential store", "error", err)
		return nil, err
	}

	sess := session.New(store)
	if err := sess.Load(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("loading session: %w", err)
	}

	provider := a.newProvider(store)
	api := client.NewGraphQLClient(client.Options{
		Endpoint: c.GraphQLEndpoint,
		APIKey:   c.APIKey,
		Timeout:  c.RequestTimeout,
	}, provider, l)

	bio, err := a.newAuthenticator()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.auth = services.NewAuthService(api, bio, sess, provider, l, services.Options{
		DedupeLogins: c.DedupeLogins,
		Metrics:      services.NewMetrics(a.registry),
	})
	return a, nil
}

// openStore opens the encrypted SQLite store. Without a device secret the
// app falls back to an in-memory store that is lost on exit.
func (a *App) openStore(ctx context.Context) (securestore.Store, error) {
	if a.config.DeviceSecret == "" {
		a.log.Warn(ctx, "device secret not set, credentials will not be persisted")
		return securestore.NewMemoryStore(), nil
	}

	if _, err := filex.EnsureParentDir(a.config.DatabasePath); err != nil {
		return nil, err
	}

	db, err := securestore.InitDatabase(ctx, a.config.DatabasePath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)

	store, err := securestore.NewSQLiteStore(ctx, db, []byte(a.config.DeviceSecret))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return store, nil
}

func (a *App) newProvider(store securestore.Store) identity.Provider {
	if a.config.MockAuth {
		return identity.NewFakeProvider(store, []byte(a.config.DeviceSecret))
	}
	return identity.NewOIDCProvider(identity.OIDCConfig{
		Issuer:      a.config.OIDCIssuer,
		ClientID:    a.config.OIDCClientID,
		RedirectURI: a.config.OIDCRedirectURI,
		Scopes:      a.config.OIDCScopes,
		BaseURL:     a.config.OIDCBaseURL,
	}, store, &http.Client{Timeout: a.config.RequestTimeout}, a.log)
}

func (a *App) newAuthenticator() (biometric.Authenticator, error) {
	if a.config.BiometricAgentAddr == "" {
		return biometric.NewTerminalAuthenticator(a.config.DeviceSecret, int(os.Stdin.Fd()), a.out), nil
	}

	agent, err := biometric.DialAgent(a.config.BiometricAgentAddr)
	if err != nil {
		return nil, fmt.Errorf("dialing biometric agent: %w", err)
	}
	a.closers = append(a.closers, agent)
	return agent, nil
}

// Run starts the REPL and, when configured, the metrics endpoint. It returns
// when the user exits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if a.config.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, a.config.MetricsAddr, a.registry, a.log)
		})
	}

	// The REPL blocks on stdin, so it is not part of the group.
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Root(ctx)
	}()

	g.Go(func() error {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	return g.Wait()
}

// Close releases the store and the biometric agent connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	_, ok := a.auth.Session().CurrentUser()
	return ok
}

func (a *App) getStatus() string {
	if u, ok := a.auth.Session().CurrentUser(); ok {
		return fmt.Sprintf("(%s)", u.DisplayName())
	}
	return ""
}

// Root prints the banner and runs the REPL over the app's input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to authflow (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
