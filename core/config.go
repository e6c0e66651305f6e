// Package core provides the message model, security primitives, confidence
// calculus, capability registry, and shared configuration/logging for SINP
// servers and clients.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds ambient configuration shared by server and client binaries.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithName("sinp-server"),
//	    WithLogLevel("debug"),
//	)
type Config struct {
	Name string `json:"name" env:"SINP_NAME" default:"sinp"`

	Logging     LoggingConfig     `json:"logging"`
	Development DevelopmentConfig `json:"development"`
	Memory      MemoryConfig      `json:"memory"`

	// logger instance for configuration operations (excluded from JSON)
	logger Logger `json:"-"`
}

// LoggingConfig contains logging configuration. Supports structured (JSON)
// and human-readable (text) formats.
type LoggingConfig struct {
	Level  string `json:"level" env:"SINP_LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"SINP_LOG_FORMAT" default:"json"`
	Output string `json:"output" env:"SINP_LOG_OUTPUT" default:"stdout"`
}

// DevelopmentConfig contains settings for local development and testing.
// When Enabled=true, logging switches to human-readable text. MockInterpreter
// is stored as a flag only; no component in this module reads it.
type DevelopmentConfig struct {
	Enabled         bool `json:"enabled" env:"SINP_DEV_MODE" default:"false"`
	MockInterpreter bool `json:"mock_interpreter" env:"SINP_MOCK_INTERPRETER" default:"false"`
	DebugLogging    bool `json:"debug_logging" env:"SINP_DEBUG" default:"false"`
	PrettyLogs      bool `json:"pretty_logs" env:"SINP_PRETTY_LOGS" default:"false"`
}

// MemoryConfig selects the backing store for the interpretation cache
// (core.InterpretationCache). Defaults to an in-process map; Redis is for
// deployments running more than one server process behind a load balancer.
type MemoryConfig struct {
	Provider        string        `json:"provider" env:"SINP_MEMORY_PROVIDER" default:"inmemory"`
	RedisURL        string        `json:"redis_url" env:"SINP_REDIS_URL,REDIS_URL"`
	DefaultTTL      time.Duration `json:"default_ttl" env:"SINP_MEMORY_DEFAULT_TTL" default:"60s"`
	CleanupInterval time.Duration `json:"cleanup_interval" env:"SINP_MEMORY_CLEANUP_INTERVAL" default:"5m"`
}

// Option configures a Config during NewConfig. Options are applied after
// environment variables and therefore take precedence over them.
type Option func(*Config) error

// DefaultConfig returns a Config populated with framework defaults.
func DefaultConfig() *Config {
	return &Config{
		Name: "sinp",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Development: DevelopmentConfig{},
		Memory: MemoryConfig{
			Provider:        "inmemory",
			DefaultTTL:      60 * time.Second,
			CleanupInterval: 5 * time.Minute,
		},
	}
}

// LoadFromEnv loads configuration from environment variables and validates
// the result. Environment variables take precedence over defaults but are
// overridden by functional options.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SINP_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("SINP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SINP_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SINP_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}
	if v := os.Getenv("SINP_DEV_MODE"); v != "" {
		c.Development.Enabled = parseBool(v)
		if c.Development.Enabled {
			c.Development.PrettyLogs = true
			c.Logging.Format = "text"
		}
	}
	if v := os.Getenv("SINP_MOCK_INTERPRETER"); v != "" {
		c.Development.MockInterpreter = parseBool(v)
	}
	if v := os.Getenv("SINP_DEBUG"); v != "" {
		c.Development.DebugLogging = parseBool(v)
		if c.Development.DebugLogging {
			c.Logging.Level = "debug"
		}
	}
	if v := os.Getenv("SINP_MEMORY_PROVIDER"); v != "" {
		c.Memory.Provider = v
	}
	if v := os.Getenv("SINP_REDIS_URL"); v != "" {
		c.Memory.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Memory.RedisURL = v
	}
	if v := os.Getenv("SINP_MEMORY_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Memory.DefaultTTL = d
		}
	}
	if v := os.Getenv("SINP_MEMORY_CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Memory.CleanupInterval = d
		}
	}

	return c.Validate()
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Name == "" {
		return &FrameworkError{Op: "Config.Validate", Kind: "validation", Message: "name is required", Err: ErrInvalidConfiguration}
	}
	switch strings.ToLower(c.Memory.Provider) {
	case "inmemory", "redis":
	default:
		return &FrameworkError{Op: "Config.Validate", Kind: "validation", Message: fmt.Sprintf("unknown memory provider %q", c.Memory.Provider), Err: ErrInvalidConfiguration}
	}
	if strings.ToLower(c.Memory.Provider) == "redis" && c.Memory.RedisURL == "" {
		return &FrameworkError{Op: "Config.Validate", Kind: "validation", Message: "redis_url is required when memory provider is redis", Err: ErrMissingConfiguration}
	}
	return nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

// WithName overrides the service name used in logs and telemetry.
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithLogLevel overrides the logging level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

// WithLogFormat overrides the logging format (json, text).
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithDevelopmentMode enables development-friendly defaults: pretty logs and
// the human-readable text format. The log level is left unchanged.
func WithDevelopmentMode(enabled bool) Option {
	return func(c *Config) error {
		c.Development.Enabled = enabled
		if enabled {
			c.Development.PrettyLogs = true
			c.Logging.Format = "text"
		}
		return nil
	}
}

// WithMockInterpreter sets Development.MockInterpreter. The flag is only
// recorded; it does not change which interpreter a registry uses.
func WithMockInterpreter(enabled bool) Option {
	return func(c *Config) error {
		c.Development.MockInterpreter = enabled
		return nil
	}
}

// WithRedisMemory configures the interpretation cache to use Redis instead of
// the in-process map.
func WithRedisMemory(url string) Option {
	return func(c *Config) error {
		c.Memory.Provider = "redis"
		c.Memory.RedisURL = url
		return nil
	}
}

// WithLogger injects a pre-built logger instead of constructing one from
// LoggingConfig. Mainly used by tests that want to assert on log output.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.logger = logger
		return nil
	}
}

// NewConfig builds a Config by layering functional options over environment
// variables over defaults, in that priority order, and attaches a
// ProductionLogger unless one was supplied via WithLogger.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if cfg.logger == nil {
		cfg.logger = NewProductionLogger(cfg.Logging, cfg.Development, cfg.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Logger returns the configured logger, building a default ProductionLogger
// if NewConfig has not been called yet.
func (c *Config) Logger() Logger {
	if c.logger == nil {
		c.logger = NewProductionLogger(c.Logging, c.Development, c.Name)
	}
	return c.logger
}

// ============================================================================
// ProductionLogger — the concrete Logger/ComponentAwareLogger implementation
// ============================================================================

// ProductionLogger writes JSON in production and human-readable text in
// development, per LoggingConfig. It implements ComponentAwareLogger so
// server and client can tag their log lines without sharing mutable state.
type ProductionLogger struct {
	level       string
	debug       bool
	serviceName string
	component   string
	format      string
	output      io.Writer
}

// NewProductionLogger creates a logger from LoggingConfig.
func NewProductionLogger(logging LoggingConfig, dev DevelopmentConfig, serviceName string) Logger {
	var output io.Writer = os.Stdout
	if logging.Output == "stderr" {
		output = os.Stderr
	}

	return &ProductionLogger{
		level:       strings.ToLower(logging.Level),
		debug:       dev.DebugLogging || logging.Level == "debug",
		serviceName: serviceName,
		format:      logging.Format,
		output:      output,
	}
}

// WithComponent returns a derived logger that tags every entry with
// component, leaving the receiver untouched.
func (p *ProductionLogger) WithComponent(component string) Logger {
	clone := *p
	clone.component = component
	return &clone
}

func (p *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields, nil)
}

func (p *ProductionLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields, ctx)
}

func (p *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields, nil)
}

func (p *ProductionLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields, ctx)
}

func (p *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields, nil)
}

func (p *ProductionLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields, ctx)
}

func (p *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields, nil)
	}
}

func (p *ProductionLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields, ctx)
	}
}

func (p *ProductionLogger) logEvent(level, msg string, fields map[string]interface{}, ctx context.Context) {
	timestamp := time.Now().Format(time.RFC3339)
	component := p.component
	if component == "" {
		component = "framework"
	}

	if p.format == "json" {
		logEntry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"service":   p.serviceName,
			"component": component,
			"message":   msg,
		}
		for k, v := range fields {
			logEntry[k] = v
		}
		if data, err := json.Marshal(logEntry); err == nil {
			fmt.Fprintln(p.output, string(data))
		}
		return
	}

	var fieldStr strings.Builder
	if len(fields) > 0 {
		fieldStr.WriteString(" ")
		for k, v := range fields {
			fieldStr.WriteString(fmt.Sprintf("%s=%v ", k, v))
		}
	}
	fmt.Fprintf(p.output, "%s [%s] [%s/%s] %s%s\n",
		timestamp, level, p.serviceName, component, msg, fieldStr.String())
}

var _ ComponentAwareLogger = (*ProductionLogger)(nil)
