// Package agent runs the biometric agent: a device-side gRPC service that
// confirms authflow's biometric prompts with the device passphrase.
package agent

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authflow/internal/agent/config"
	"github.com/dmitrijs2005/authflow/internal/client/biometric"
	"github.com/dmitrijs2005/authflow/internal/logging"
)

var errNoDeviceSecret = errors.New("device secret is required")

type App struct {
	config *config.Config
	logger logging.Logger
	server *biometric.AgentServer
}

func NewApp(c *config.Config, l logging.Logger) (*App, error) {
	if c.DeviceSecret == "" {
		return nil, errNoDeviceSecret
	}

	auth := biometric.NewTerminalAuthenticator(c.DeviceSecret, int(os.Stdin.Fd()), os.Stdout)
	auth.SetMaxFailures(c.MaxFailures)

	return newApp(c, l, auth), nil
}

func newApp(c *config.Config, l logging.Logger, auth biometric.Authenticator) *App {
	return &App{
		config: c,
		logger: l,
		server: biometric.NewAgentServer(c.ListenAddr, auth, l),
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves prompts until ctx ends or the process is signalled.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "biometric agent stopped", "error", err)
		return err
	}
	return nil
}
