package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bjadvisor.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
	assert.Equal(t, DefaultLogLevel, cfg.Server.LogLevel)
	assert.Equal(t, DefaultDSN, cfg.Store.DSN)
	assert.Equal(t, DefaultStrategy, cfg.Strategy.Default)
	assert.Equal(t, DefaultCertFile, cfg.Server.TLS.CertFile)
	assert.Equal(t, DefaultKeyFile, cfg.Server.TLS.KeyFile)
	assert.False(t, cfg.Server.LegacyActionNames)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
server {
  address             = "127.0.0.1"
  port                = 9443
  log_level           = "debug"
  legacy_action_names = true

  tls {
    cert_file = "/etc/bj/cert.pem"
  }
}

store {
  dsn = "postgres://bj@localhost/blackjack"
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9443", cfg.GetServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.True(t, cfg.Server.LegacyActionNames)
	assert.Equal(t, "/etc/bj/cert.pem", cfg.Server.TLS.CertFile)
	assert.Equal(t, DefaultKeyFile, cfg.Server.TLS.KeyFile)
	assert.Equal(t, "postgres://bj@localhost/blackjack", cfg.Store.DSN)
	assert.Equal(t, DefaultStrategy, cfg.Strategy.Default, "missing block gets defaults")
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `server {`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse HCL file")

	_, err = LoadConfig(writeConfig(t, `server { port = "eighty" }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode HCL")

	_, err = LoadConfig(writeConfig(t, `tables { }`))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"port too low", func(c *Config) { c.Server.Port = -1 }, "invalid port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }, "invalid log level"},
		{"blank dsn", func(c *Config) { c.Store.DSN = "  " }, "store dsn"},
		{"blank strategy", func(c *Config) { c.Strategy.Default = "" }, "default strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	cfg := DefaultConfig()
	cfg.Server.LogLevel = "WARN"
	assert.NoError(t, cfg.Validate(), "log level is case-insensitive")
}

func TestTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Server.TLS.CertFile = filepath.Join(dir, "cert.pem")
	cfg.Server.TLS.KeyFile = filepath.Join(dir, "key.pem")

	_, _, ok := cfg.TLSFiles()
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(cfg.Server.TLS.CertFile, []byte("cert"), 0o600))
	_, _, ok = cfg.TLSFiles()
	assert.False(t, ok, "key still missing")

	require.NoError(t, os.WriteFile(cfg.Server.TLS.KeyFile, []byte("key"), 0o600))
	cert, key, ok := cfg.TLSFiles()
	assert.True(t, ok)
	assert.Equal(t, cfg.Server.TLS.CertFile, cert)
	assert.Equal(t, cfg.Server.TLS.KeyFile, key)
}
