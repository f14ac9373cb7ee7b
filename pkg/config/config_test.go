package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "./tmp/data.sqlite", cfg.DatabaseFilePath)
	assert.Equal(t, 4000, cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.DatabaseBusyTimeout)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelfd.yml")
	data := []byte("server:\n  port: 9090\ndatabase:\n  file_path: /data/shelf.sqlite\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "/data/shelf.sqlite", cfg.DatabaseFilePath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelfd.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0600))
	t.Setenv("SHELFD_SERVER__PORT", "7070")
	t.Setenv("SHELFD_TOKEN__SECRET", "supersecret")

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "supersecret", cfg.TokenSecret)
}

func TestLoadTestEnvironmentUsesMemoryDatabase(t *testing.T) {
	t.Setenv("SHELFD_ENVIRONMENT", "test")

	cfg, err := load("")
	require.NoError(t, err)
	assert.Equal(t, "file::memory:?cache=shared", cfg.DatabaseFilePath)
}

func TestLoadUnknownEnvironment(t *testing.T) {
	t.Setenv("SHELFD_ENVIRONMENT", "staging")

	_, err := load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown environment")
}

func TestLoadProductionRequiresTokenSecret(t *testing.T) {
	t.Setenv("SHELFD_ENVIRONMENT", "production")

	_, err := load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token.secret")
}
