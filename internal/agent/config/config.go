// Package config handles configuration for the biometric agent, including
// defaults, JSON overlay, environment variables and command-line flags.
package config

import "os"

// Config holds runtime settings for the biometric agent.
//
// Fields:
//   - ListenAddr: bind address for the agent's gRPC endpoint.
//   - DeviceSecret: the passphrase a prompt must be confirmed with.
//   - MaxFailures: consecutive mismatches before the prompt locks.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ListenAddr   string
	DeviceSecret string
	MaxFailures  int
	LogLevel     string
}

// LoadDefaults populates Config with development defaults. The agent only
// listens on loopback unless told otherwise.
func (c *Config) LoadDefaults() {
	c.ListenAddr = "127.0.0.1:50061"
	c.MaxFailures = 3
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
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
