package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/authflow/internal/flagx"
)

// parseFlags overlays cfg with command-line flags.
//
// Supported flags:
//
//	-a string          gRPC bind address (e.g., "127.0.0.1:50061")
//	-secret string     device passphrase
//	-max-failures int  mismatches before lockout
//	-log-level string  debug, info, warn or error
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-secret", "-max-failures", "-log-level"})

	fs := flag.NewFlagSet("authflow-agent", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "address and port to listen on")
	fs.StringVar(&cfg.DeviceSecret, "secret", cfg.DeviceSecret, "device passphrase")
	fs.IntVar(&cfg.MaxFailures, "max-failures", cfg.MaxFailures, "mismatches before lockout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
