package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-blogauth/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blogauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":8080"
auth:
  signing_key: "file-secret"
  token_expiration: 2
  audience: ["web", "cli"]
sessions:
  backend: redis
  redis:
    addr: "cache:6379"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "file-secret", cfg.GetSigningKey())
	assert.Equal(t, 2, cfg.GetTokenExpiration())
	assert.Equal(t, []string{"web", "cli"}, cfg.GetAudience())
	assert.Equal(t, config.SessionBackendRedis, cfg.Sessions.Backend)

	rc := cfg.RedisSessionConfig()
	assert.Equal(t, "cache:6379", rc.Addr)
	assert.Equal(t, 2*time.Hour, rc.TTL)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  signing_key: secret\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "HS256", cfg.GetSigningMethod())
	assert.Equal(t, "user", cfg.GetContextKey())
	assert.Equal(t, 1, cfg.GetTokenExpiration())
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, config.SessionBackendSQL, cfg.Sessions.Backend)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "auth:\n  signing_key: from-file\n")
	t.Setenv("BLOGAUTH_AUTH_SIGNING_KEY", "from-env")
	t.Setenv("BLOGAUTH_SERVER_ADDRESS", ":9999")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetSigningKey())
	assert.Equal(t, ":9999", cfg.Server.Address)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing signing key", func(t *testing.T) {
		path := writeConfig(t, "server:\n  address: \":1\"\n")
		_, err := config.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signing_key")
	})

	t.Run("unknown session backend", func(t *testing.T) {
		path := writeConfig(t, "auth:\n  signing_key: s\nsessions:\n  backend: memcached\n")
		_, err := config.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sessions.backend")
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
