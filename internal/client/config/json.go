package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authflow/internal/flagx"
	"github.com/dmitrijs2005/authflow/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the corresponding Config field untouched.
type JSONConfig struct {
	GraphQLEndpoint    *string         `json:"graphql_endpoint"`
	APIKey             *string         `json:"api_key"`
	OIDCIssuer         *string         `json:"oidc_issuer"`
	OIDCClientID       *string         `json:"oidc_client_id"`
	OIDCRedirectURI    *string         `json:"oidc_redirect_uri"`
	OIDCScopes         []string        `json:"oidc_scopes"`
	OIDCBaseURL        *string         `json:"oidc_base_url"`
	MockAuth           *bool           `json:"mock_auth"`
	DatabasePath       *string         `json:"database_path"`
	DeviceSecret       *string         `json:"device_secret"`
	BiometricAgentAddr *string         `json:"biometric_agent_addr"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	DedupeLogins       *bool           `json:"dedupe_logins"`
	MetricsAddr        *string         `json:"metrics_addr"`
	LogLevel           *string         `json:"log_level"`
}

// parseJSON overlays cfg with the JSON file given by -c or -config in args.
// Without the flag nothing happens.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.GraphQLEndpoint, jc.GraphQLEndpoint)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.OIDCIssuer, jc.OIDCIssuer)
	setString(&cfg.OIDCClientID, jc.OIDCClientID)
	setString(&cfg.OIDCRedirectURI, jc.OIDCRedirectURI)
	if jc.OIDCScopes != nil {
		cfg.OIDCScopes = jc.OIDCScopes
	}
	setString(&cfg.OIDCBaseURL, jc.OIDCBaseURL)
	if jc.MockAuth != nil {
		cfg.MockAuth = *jc.MockAuth
	}
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.DeviceSecret, jc.DeviceSecret)
	setString(&cfg.BiometricAgentAddr, jc.BiometricAgentAddr)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DedupeLogins != nil {
		cfg.DedupeLogins = *jc.DedupeLogins
	}
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
