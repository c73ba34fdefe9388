package config

import (
	"fmt"
	"strconv"
)

// EnvPrefix prefixes every environment variable the agent reads.
const EnvPrefix = "AUTHFLOW_AGENT_"

// parseEnv overlays cfg with AUTHFLOW_AGENT_* variables. Empty values are
// ignored.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}

	if v, ok := get("LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := get("DEVICE_SECRET"); ok {
		cfg.DeviceSecret = v
	}
	if v, ok := get("MAX_FAILURES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_FAILURES: %w", EnvPrefix, err)
		}
		cfg.MaxFailures = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	return nil
}
