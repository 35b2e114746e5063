package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvString(t *testing.T) {
	os.Setenv("TEST_PREFLIGHT_DB", "/custom/preflight.db")
	defer os.Unsetenv("TEST_PREFLIGHT_DB")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expand ${VAR} syntax", "${TEST_PREFLIGHT_DB}", "/custom/preflight.db"},
		{"expand $VAR syntax", "$TEST_PREFLIGHT_DB", "/custom/preflight.db"},
		{"expand in middle of string", "path:${TEST_PREFLIGHT_DB}:end", "path:/custom/preflight.db:end"},
		{"leave non-existent var unchanged", "${NONEXISTENT_VAR}", "${NONEXISTENT_VAR}"},
		{"handle empty string", "", ""},
		{"handle string without variables", "plain-path", "plain-path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvString(tt.input))
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}, FileName: "preflightd-nonexistent", EnvPrefix: "PREFLIGHT_TEST_LOAD"})
	require.NoError(t, err)

	assert.Equal(t, 4173, cfg.Server.Port)
	assert.Equal(t, 256, cfg.EventBus.QueueDepth)
	assert.Equal(t, 100_000, cfg.DiffEngine.MaxLines)
	assert.Equal(t, 5*1024*1024, cfg.DiffEngine.MaxBytes)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/preflightd.yaml", []byte("server:\n  port: 9999\n"), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}, FileName: "preflightd", EnvPrefix: "PREFLIGHT_TEST_FILE"})
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadExpandsPersistencePathFromEnv(t *testing.T) {
	os.Setenv("PREFLIGHT_TEST_ENV_DB_PATH", "/tmp/expanded.db")
	defer os.Unsetenv("PREFLIGHT_TEST_ENV_DB_PATH")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/preflightd.yaml", []byte("persistence:\n  path: ${PREFLIGHT_TEST_ENV_DB_PATH}\n"), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}, FileName: "preflightd", EnvPrefix: "PREFLIGHT_TEST_ENV"})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/expanded.db", cfg.Persistence.Path)
}
