// Package config loads runtime configuration for the authflow client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. AUTHFLOW_* environment variables; call LoadDotEnv first to pull them
//     from a .env file.
//  4. Command-line flags (see parseFlags), which override everything else.
//
// # JSON schema
//
// Durations are strings like "15s" or integer nanoseconds:
//
//	{
//	  "graphql_endpoint": "https://api.example.com/graphql",
//	  "oidc_issuer": "https://example.okta.com/oauth2/default",
//	  "oidc_client_id": "0oa1",
//	  "oidc_base_url": "https://example.okta.com",
//	  "request_timeout": "15s",
//	  "mock_auth": false
//	}
//
// Primary API
//
//   - type Config
//   - func LoadConfig() (*Config, error)
//   - func LoadDotEnv(paths ...string) error
package config
