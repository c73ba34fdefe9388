package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the authflow client.
//
// Fields:
//   - GraphQLEndpoint, APIKey: the profile backend and its API key.
//   - OIDC*: the authorization server. OIDCBaseURL is the org URL used for
//     password recovery.
//   - MockAuth: use the canned identity provider instead of OIDC.
//   - DatabasePath, DeviceSecret: the encrypted credential store and the
//     secret its key is derived from.
//   - BiometricAgentAddr: host:port of the biometric agent; empty means the
//     terminal passphrase prompt.
//   - RequestTimeout: per HTTP request.
//   - DedupeLogins: collapse concurrent identical logins.
//   - MetricsAddr: serve /metrics there when set.
type Config struct {
	GraphQLEndpoint string
	APIKey          string

	OIDCIssuer      string
	OIDCClientID    string
	OIDCRedirectURI string
	OIDCScopes      []string
	OIDCBaseURL     string
	MockAuth        bool

	DatabasePath string
	DeviceSecret string

	BiometricAgentAddr string
	RequestTimeout     time.Duration
	DedupeLogins       bool
	MetricsAddr        string
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GraphQLEndpoint = "http://127.0.0.1:8080/graphql"
	c.OIDCRedirectURI = "com.authflow.app:/callback"
	c.OIDCScopes = []string{"openid", "profile", "offline_access"}
	c.DatabasePath = "authflow.db"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the JSON file named by -c or
// -config, then the environment (and a .env file), then command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookup lookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
