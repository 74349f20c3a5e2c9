package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Explicit(t *testing.T) {
	t.Setenv(EnvPath, "")
	path := writeConfig(t, t.TempDir(), `
brew:
  path: /opt/homebrew/bin/brew
timeout: 10m
stream_timeout: 1h
max_line: 1024
cache:
  size: 8
  ttl: 1m
log:
  level: debug
  format: json
`)

	res, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)

	c := res.Config
	assert.Equal(t, "/opt/homebrew/bin/brew", c.Brew.Path)
	assert.Equal(t, 10*time.Minute, c.Timeout())
	assert.Equal(t, time.Hour, c.StreamTimeout())
	assert.Equal(t, 1024, c.MaxLineBytes())
	assert.Equal(t, 8, c.CacheSize())
	assert.Equal(t, time.Minute, c.CacheTTL())
	assert.Equal(t, "debug", c.LogLevel())
	assert.Equal(t, "json", c.LogFormat())
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "timeout: 30s\n")
	t.Setenv(EnvPath, path)

	res, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, res.Config.Timeout())
}

func TestLoad_UserConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	dir, err := os.UserConfigDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cellar"), 0o755))
	writeConfig(t, filepath.Join(dir, "cellar"), "grace_period: 2s\n")

	res, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, res.Config.GracePeriod())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)

	res, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, res.Path)

	c := res.Config
	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.Zero(t, c.StreamTimeout())
	assert.Equal(t, DefaultMaxOutput, c.MaxOutputBytes())
	assert.Equal(t, DefaultStreamBuffer, c.StreamBuffer())
	assert.Equal(t, "console", c.LogFormat())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "timeout: [\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestAccessors_InvalidValuesFallBack(t *testing.T) {
	c := &Config{
		RawTimeout:     "soon",
		RawGracePeriod: "-1s",
		RawMaxOutput:   -5,
		Cache:          CacheConfig{RawTTL: "0s"},
		Log:            LogConfig{Format: "xml"},
	}
	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.Equal(t, DefaultGracePeriod, c.GracePeriod())
	assert.Equal(t, DefaultMaxOutput, c.MaxOutputBytes())
	assert.Equal(t, DefaultCacheTTL, c.CacheTTL())
	assert.Equal(t, "console", c.LogFormat())
}

func TestLoad_Metrics(t *testing.T) {
	t.Setenv(EnvPath, "")
	path := writeConfig(t, t.TempDir(), `
metrics:
  endpoint: localhost:4318
  insecure: true
  interval: 1m
`)

	res, err := Load(path)
	require.NoError(t, err)
	m := res.Config.Metrics
	assert.Equal(t, "localhost:4318", m.Endpoint)
	assert.True(t, m.Insecure)
	assert.Equal(t, time.Minute, m.Interval())
	assert.Equal(t, DefaultMetricsInterval, MetricsConfig{}.Interval())
}
