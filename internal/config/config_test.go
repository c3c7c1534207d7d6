package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func env(vars map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, 30, cfg.BatchSize)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
backend: http
batch_size: 50
allow_uuid_keys: true
cleanup_age: 48h
api:
  url: https://api.example.test
  auth_url: https://auth.example.test
  project_key: shop
  client_id: id
  client_secret: secret
  scopes: [manage_project:shop]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendHTTP, cfg.Backend)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.True(t, cfg.AllowUUIDKeys)
	assert.Equal(t, 48*time.Hour, cfg.CleanupAge)
	assert.Equal(t, "shop", cfg.API.ProjectKey)
	assert.Equal(t, []string{"manage_project:shop"}, cfg.API.Credentials().Scopes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "batch_size: [1"))
	assert.ErrorContains(t, err, "parse config")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"CATALOGSYNC_BACKEND":         "http",
		"CATALOGSYNC_BATCH_SIZE":      "5",
		"CATALOGSYNC_ALLOW_UUID_KEYS": "true",
		"CATALOGSYNC_SCOPES":          "a b",
		"CATALOGSYNC_CLIENT_SECRET":   "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendHTTP, cfg.Backend)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.True(t, cfg.AllowUUIDKeys)
	assert.Equal(t, []string{"a", "b"}, cfg.API.Scopes)
	assert.Equal(t, "s3cret", cfg.API.ClientSecret)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{"CATALOGSYNC_BATCH_SIZE": "many"}))
	assert.ErrorContains(t, err, "CATALOGSYNC_BATCH_SIZE")
}

func TestEnvironReadsDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CATALOGSYNC_PROJECT_KEY=from-file\nCATALOGSYNC_WAITING_DB=/tmp/w.db\n")
	t.Setenv("CATALOGSYNC_PROJECT_KEY", "from-env")

	lookup, err := Environ(path)
	require.NoError(t, err)

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "from-env", cfg.API.ProjectKey)
	assert.Equal(t, "/tmp/w.db", cfg.WaitingDB)
}

func TestEnvironMissingFile(t *testing.T) {
	lookup, err := Environ(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	_, ok := lookup("CATALOGSYNC_SURELY_UNSET")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendHTTP
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.client_id is required")
	assert.Contains(t, err.Error(), "api.url is required")

	cfg.Backend = "ftp"
	assert.ErrorContains(t, cfg.Validate(), `backend must be "http" or "file"`)

	assert.NoError(t, Default().Validate())
}
