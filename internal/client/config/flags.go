package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/authflow/internal/flagx"
)

var (
	valueFlags = []string{"-g", "-k", "-issuer", "-client-id", "-redirect-uri", "-scopes",
		"-base-url", "-d", "-secret", "-agent", "-timeout", "-metrics", "-log-level"}
	boolFlags = []string{"-mock", "-dedupe"}
)

// parseFlags overlays cfg with command-line flags.
//
// Supported flags:
//
//	-g string          GraphQL endpoint URL
//	-k string          API key sent as x-api-key
//	-issuer string     OIDC issuer URL
//	-client-id string  OIDC client id
//	-redirect-uri      OIDC redirect URI
//	-scopes string     comma-separated OIDC scopes
//	-base-url string   identity provider org URL (password recovery)
//	-mock              use the mock identity provider
//	-d string          credential store database path
//	-secret string     device secret for the credential store
//	-agent string      biometric agent host:port
//	-timeout duration  per-request timeout
//	-dedupe            collapse concurrent identical logins
//	-metrics string    serve Prometheus metrics on this address
//	-log-level string  debug, info, warn or error
//
// args is filtered with flagx.FilterArgs so flags owned by other components
// do not break parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, valueFlags, boolFlags...)

	fs := flag.NewFlagSet("authflow", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.GraphQLEndpoint, "g", cfg.GraphQLEndpoint, "GraphQL endpoint URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")
	fs.StringVar(&cfg.OIDCIssuer, "issuer", cfg.OIDCIssuer, "OIDC issuer URL")
	fs.StringVar(&cfg.OIDCClientID, "client-id", cfg.OIDCClientID, "OIDC client id")
	fs.StringVar(&cfg.OIDCRedirectURI, "redirect-uri", cfg.OIDCRedirectURI, "OIDC redirect URI")
	fs.Func("scopes", "comma-separated OIDC scopes", func(v string) error {
		cfg.OIDCScopes = splitList(v)
		return nil
	})
	fs.StringVar(&cfg.OIDCBaseURL, "base-url", cfg.OIDCBaseURL, "identity provider org URL")
	fs.BoolVar(&cfg.MockAuth, "mock", cfg.MockAuth, "use the mock identity provider")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "credential store database path")
	fs.StringVar(&cfg.DeviceSecret, "secret", cfg.DeviceSecret, "device secret")
	fs.StringVar(&cfg.BiometricAgentAddr, "agent", cfg.BiometricAgentAddr, "biometric agent address")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	fs.BoolVar(&cfg.DedupeLogins, "dedupe", cfg.DedupeLogins, "collapse concurrent identical logins")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "metrics listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
