package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "filesystem", c.Keys.Backend)
	assert.Equal(t, "JWT_KEY", c.Keys.EnvPrefix)
	assert.Equal(t, time.Duration(0), c.Keys.ClockSkew)
	assert.True(t, c.Keys.Watch)
	assert.Equal(t, 30*time.Minute, c.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, c.JWT.RefreshTTL)
	assert.Equal(t, "memory", c.Storage.RefreshTokens)
	assert.Equal(t, 5, c.Rate.Login.Limit)
	assert.Equal(t, time.Minute, c.Rate.Login.Window)
	assert.False(t, c.UsesRedis())
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: Staging
keys:
  backend: environment
  env_prefix: SVC_KEY
  clock_skew: 5s
jwt:
  access_ttl: 15m
storage:
  refresh_tokens: redis
rate:
  login:
    limit: 3
`), 0o644))

	t.Setenv("JWT_REFRESH_TTL", "48h")
	t.Setenv("RATE_LOGIN_WINDOW", "30s")
	t.Setenv("KEYS_ENV_PREFIX", "OVERRIDE")
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	t.Setenv("KEYS_WATCH", "false")

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "staging", c.App.Env)
	assert.Equal(t, "environment", c.Keys.Backend)
	assert.Equal(t, "OVERRIDE", c.Keys.EnvPrefix)
	assert.Equal(t, 5*time.Second, c.Keys.ClockSkew)
	assert.False(t, c.Keys.Watch)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTTL, "unparseable env values are ignored")
	assert.Equal(t, 48*time.Hour, c.JWT.RefreshTTL)
	assert.Equal(t, 3, c.Rate.Login.Limit)
	assert.Equal(t, 30*time.Second, c.Rate.Login.Window)
	assert.True(t, c.UsesRedis())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Defaults()
	c.normalize()
	c.Keys.Backend = "vault"
	c.Storage.Driver = "postgres"
	c.Storage.RefreshTokens = "postgres"
	c.JWT.AccessTTL = 0
	c.App.Env = "prod"

	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "keys.backend")
	assert.Contains(t, msg, "storage.dsn")
	assert.Contains(t, msg, "jwt.access_ttl")
	assert.Contains(t, msg, "admin.password must be changed in prod")
}
