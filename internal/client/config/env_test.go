package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	err := parseEnv(cfg, mapEnv(map[string]string{
		"AUTHFLOW_GRAPHQL_ENDPOINT": "https://env/graphql",
		"AUTHFLOW_OIDC_SCOPES":      "openid, email,profile",
		"AUTHFLOW_MOCK_AUTH":        "true",
		"AUTHFLOW_REQUEST_TIMEOUT":  "2s",
		"AUTHFLOW_DEVICE_SECRET":    "s3cret",
		"AUTHFLOW_API_KEY":          "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://env/graphql", cfg.GraphQLEndpoint)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.OIDCScopes)
	assert.True(t, cfg.MockAuth)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "s3cret", cfg.DeviceSecret)
	assert.Empty(t, cfg.APIKey, "empty variables are ignored")
}

func Test_parseEnv_BadValues(t *testing.T) {
	require.Error(t, parseEnv(&Config{}, mapEnv(map[string]string{"AUTHFLOW_REQUEST_TIMEOUT": "later"})))
	require.Error(t, parseEnv(&Config{}, mapEnv(map[string]string{"AUTHFLOW_DEDUPE_LOGINS": "perhaps"})))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AUTHFLOW_TEST_DOTENV_KEY=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("AUTHFLOW_TEST_DOTENV_KEY") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("AUTHFLOW_TEST_DOTENV_KEY"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
