package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sinp-protocol/sinp/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:9000", cfg.BindAddr)
	assert.Nil(t, cfg.TLS)
	require.NoError(t, cfg.Validate())
}

func TestWithAddrAndThresholds(t *testing.T) {
	cfg := DefaultConfig().
		WithAddr("0.0.0.0:8080").
		WithThresholds(core.Thresholds{TauExec: 0.9, TauClarify: 0.6, TauAccept: 0.6})

	assert.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	assert.Equal(t, 0.9, cfg.Thresholds.TauExec)
}

func TestWithTLS(t *testing.T) {
	cfg := DefaultConfig().WithTLS("cert.pem", "key.pem")
	require.NotNil(t, cfg.TLS)
	assert.Equal(t, "cert.pem", cfg.TLS.CertPath)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsEmptyBindAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsIncompleteTLS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TLS = &TLSConfig{CertPath: "cert.pem"}
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind_addr: 0.0.0.0:9100\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9100", cfg.BindAddr)
	assert.Equal(t, DefaultConfig().MaxMessageSize, cfg.MaxMessageSize)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SINP_SERVER_BIND_ADDR", "0.0.0.0:9200")
	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "0.0.0.0:9200", cfg.BindAddr)
}
