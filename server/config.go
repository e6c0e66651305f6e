package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sinp-protocol/sinp/core"
	"gopkg.in/yaml.v3"
)

// TLSConfig points at a PEM certificate/key pair for securing server
// connections. Leaving it nil runs the server in plaintext.
type TLSConfig struct {
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
}

// Config is the SINP server's own configuration, separate from
// core.Config's ambient logging/memory settings: bind address, decision
// thresholds, transport limits, and optional TLS.
type Config struct {
	BindAddr        string            `yaml:"bind_addr"`
	Thresholds      core.Thresholds   `yaml:"thresholds"`
	ReplayWindow    time.Duration     `yaml:"replay_window"`
	TLS             *TLSConfig        `yaml:"tls,omitempty"`
	ReadTimeout     time.Duration     `yaml:"read_timeout"`
	WriteTimeout    time.Duration     `yaml:"write_timeout"`
	MaxMessageSize  int               `yaml:"max_message_size"`
}

// DefaultConfig returns the RFC-default server configuration: bind
// 127.0.0.1:9000, default thresholds, 5s replay window, no TLS, 30s
// read/write timeouts, 1MB max message size.
func DefaultConfig() Config {
	return Config{
		BindAddr:       "127.0.0.1:9000",
		Thresholds:     core.DefaultThresholds(),
		ReplayWindow:   core.DefaultReplayWindow,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxMessageSize: 1024 * 1024,
	}
}

// WithAddr returns a copy of cfg bound to addr.
func (cfg Config) WithAddr(addr string) Config {
	cfg.BindAddr = addr
	return cfg
}

// WithThresholds returns a copy of cfg using the given decision thresholds.
func (cfg Config) WithThresholds(thresholds core.Thresholds) Config {
	cfg.Thresholds = thresholds
	return cfg
}

// WithTLS returns a copy of cfg configured to terminate TLS using the given
// certificate/key pair.
func (cfg Config) WithTLS(certPath, keyPath string) Config {
	cfg.TLS = &TLSConfig{CertPath: certPath, KeyPath: keyPath}
	return cfg
}

// LoadConfigFile reads a YAML server configuration file and overlays it on
// top of DefaultConfig, so a file only needs to specify the fields it wants
// to override.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &core.FrameworkError{Op: "LoadConfigFile", Kind: "validation", Message: fmt.Sprintf("reading %s", path), Err: err}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &core.FrameworkError{Op: "LoadConfigFile", Kind: "validation", Message: fmt.Sprintf("parsing %s", path), Err: err}
	}

	return cfg, nil
}

// LoadFromEnv overlays SINP_SERVER_* environment variables onto cfg,
// matching core.Config's manual (non-reflection) env-override style.
func (cfg *Config) LoadFromEnv() error {
	if v := os.Getenv("SINP_SERVER_BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}
	if v := os.Getenv("SINP_SERVER_MAX_MESSAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &core.FrameworkError{Op: "Config.LoadFromEnv", Kind: "validation", Message: "SINP_SERVER_MAX_MESSAGE_SIZE must be an integer", Err: core.ErrInvalidConfiguration}
		}
		cfg.MaxMessageSize = n
	}
	if v := os.Getenv("SINP_SERVER_REPLAY_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &core.FrameworkError{Op: "Config.LoadFromEnv", Kind: "validation", Message: "SINP_SERVER_REPLAY_WINDOW must be a duration", Err: core.ErrInvalidConfiguration}
		}
		cfg.ReplayWindow = d
	}
	return nil
}

// Validate checks that cfg is internally consistent.
func (cfg Config) Validate() error {
	if cfg.BindAddr == "" {
		return &core.FrameworkError{Op: "Config.Validate", Kind: "validation", Message: "bind_addr is required", Err: core.ErrMissingConfiguration}
	}
	if cfg.MaxMessageSize <= 0 {
		return &core.FrameworkError{Op: "Config.Validate", Kind: "validation", Message: "max_message_size must be positive", Err: core.ErrInvalidConfiguration}
	}
	if cfg.TLS != nil {
		if cfg.TLS.CertPath == "" || cfg.TLS.KeyPath == "" {
			return &core.FrameworkError{Op: "Config.Validate", Kind: "validation", Message: "tls requires both cert_path and key_path", Err: core.ErrMissingConfiguration}
		}
	}
	return nil
}
