package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray .env or
// gradestats.yaml is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, ":8080", cfg.Server.Address())
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	yamlConfig := `
server:
  port: 9000
  read_timeout: 5s
redis:
  enabled: true
  addr: redis:6379
  db: 3
  report_ttl: 2m
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))
	t.Setenv("GRADESTATS_SERVER_PORT", "9100")
	t.Setenv("GRADESTATS_LOGGING_OUTPUT", "both")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides the file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout, "defaults survive for keys the file omits")
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 2*time.Minute, cfg.Redis.ReportTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GRADESTATS_SERVER_MAX_UPLOAD_BYTES=2048\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("GRADESTATS_SERVER_MAX_UPLOAD_BYTES") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), cfg.Server.MaxUploadBytes)
}

func TestLoadErrors(t *testing.T) {
	dir := chdirTemp(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicitly named file must exist")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [not, a, map]"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("GRADESTATS_SERVER_PORT", "not-a-number")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log output", func(c *Config) { c.Logging.Output = "syslog" }},
		{"file output without path", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }},
		{"redis enabled without address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }},
		{"redis db out of range", func(c *Config) { c.Redis.DB = 16 }},
		{"zero ttl", func(c *Config) { c.Redis.ReportTTL = 0 }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
