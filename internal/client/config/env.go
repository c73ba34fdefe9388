package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "AUTHFLOW_"

type lookupFunc func(key string) (string, bool)

// LoadDotEnv loads a .env file from the working directory into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// parseEnv overlays cfg with AUTHFLOW_* variables.
func parseEnv(cfg *Config, lookup lookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}
	str := func(dst *string, name string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	boolean := func(dst *bool, name string) error {
		v, ok := get(name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str(&cfg.GraphQLEndpoint, "GRAPHQL_ENDPOINT")
	str(&cfg.APIKey, "API_KEY")
	str(&cfg.OIDCIssuer, "OIDC_ISSUER")
	str(&cfg.OIDCClientID, "OIDC_CLIENT_ID")
	str(&cfg.OIDCRedirectURI, "OIDC_REDIRECT_URI")
	if v, ok := get("OIDC_SCOPES"); ok {
		cfg.OIDCScopes = splitList(v)
	}
	str(&cfg.OIDCBaseURL, "OIDC_BASE_URL")
	if err := boolean(&cfg.MockAuth, "MOCK_AUTH"); err != nil {
		return err
	}
	str(&cfg.DatabasePath, "DATABASE_PATH")
	str(&cfg.DeviceSecret, "DEVICE_SECRET")
	str(&cfg.BiometricAgentAddr, "BIOMETRIC_AGENT_ADDR")
	if v, ok := get("REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREQUEST_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	if err := boolean(&cfg.DedupeLogins, "DEDUPE_LOGINS"); err != nil {
		return err
	}
	str(&cfg.MetricsAddr, "METRICS_ADDR")
	str(&cfg.LogLevel, "LOG_LEVEL")
	return nil
}

func splitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
