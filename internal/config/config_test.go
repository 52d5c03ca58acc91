package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "steprelay.yaml", `
log_level: debug
engine:
  max_steps: 500
  input_timeout: 30s
observer:
  auto: true
  auto_delay: 1s
store:
  backend: redis
  ttl: 24h
  redact: "password=\\S+,token=\\S+"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint64(500), cfg.Engine.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.Engine.InputTimeout)
	assert.True(t, cfg.Observer.Auto)
	assert.Equal(t, time.Second, cfg.Observer.AutoDelay)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, []string{`password=\S+`, `token=\S+`}, cfg.Store.Redact)

	// Untouched keys keep their defaults.
	assert.Equal(t, "text", cfg.Observer.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "steprelay.json", `{"server": {"addr": ":9090", "step_timeout": "10s"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.StepTimeout)
}

func TestLoad_EnvPath(t *testing.T) {
	path := write(t, "env.yaml", "log_format: json\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "no_such_key: 1\n"},
		{"bad duration", "engine:\n  input_timeout: soon\n"},
		{"bad backend", "store:\n  backend: s3\n"},
		{"bad level", "log_level: loud\n"},
		{"malformed", "engine: [\n"},
		{"bad redact pattern", "store:\n  redact: [\"(\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, "c.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
