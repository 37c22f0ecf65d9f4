package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port                int           `yaml:"port"`
	ReadTimeout         time.Duration `yaml:"read_timeout"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`
	MaxBodyBytes        int64         `yaml:"max_body_bytes"`
}

// AuthConfig controls the role guard in front of the chat endpoints.
type AuthConfig struct {
	Enabled      bool     `yaml:"enabled"`
	RequiredRole string   `yaml:"required_role"`
	RoleClaims   []string `yaml:"role_claims"`
}

// CORSConfig holds the fixed CORS response headers.
type CORSConfig struct {
	AllowOrigin  string `yaml:"allow_origin"`
	AllowHeaders string `yaml:"allow_headers"`
	AllowMethods string `yaml:"allow_methods"`
}

// UpstreamConfig tunes the HTTP transport used for provider calls.
type UpstreamConfig struct {
	DialTimeout           time.Duration `yaml:"dial_timeout"`
	KeepAlive             time.Duration `yaml:"keep_alive"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout"`
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout"`
	MaxIdleConns          int           `yaml:"max_idle_conns"`
	MaxErrorBodyBytes     int64         `yaml:"max_error_body_bytes"`
	MaxResponseBytes      int64         `yaml:"max_response_bytes"`
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns a Config with every default filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:                8080,
			ReadTimeout:         30 * time.Second,
			RequestTimeout:      5 * time.Minute,
			ShutdownGracePeriod: 10 * time.Second,
			MaxBodyBytes:        10 << 20,
		},
		Auth: AuthConfig{
			Enabled:      true,
			RequiredRole: "chatUser",
			RoleClaims:   []string{"roles", "custom:roles"},
		},
		CORS: CORSConfig{
			AllowOrigin:  "*",
			AllowHeaders: "Content-Type,Authorization",
			AllowMethods: "POST,OPTIONS",
		},
		Upstream: UpstreamConfig{
			DialTimeout:           10 * time.Second,
			KeepAlive:             30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          50,
			MaxErrorBodyBytes:     1 << 20,
			MaxResponseBytes:      32 << 20,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// GATEWAY_* environment variables, then validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("resolve config path: %w", err)
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GATEWAY_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("GATEWAY_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GATEWAY_REQUEST_TIMEOUT: %w", err)
		}
		cfg.Server.RequestTimeout = d
	}
	if v := os.Getenv("GATEWAY_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GATEWAY_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if v := os.Getenv("GATEWAY_REQUIRED_ROLE"); v != "" {
		cfg.Auth.RequiredRole = v
	}
	if v := os.Getenv("GATEWAY_CORS_ALLOW_ORIGIN"); v != "" {
		cfg.CORS.AllowOrigin = v
	}
	if v := os.Getenv("GATEWAY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}

	if c.Auth.Enabled {
		if strings.TrimSpace(c.Auth.RequiredRole) == "" {
			return fmt.Errorf("auth.required_role must be provided when auth is enabled")
		}
		if len(c.Auth.RoleClaims) == 0 {
			return fmt.Errorf("auth.role_claims must list at least one claim name")
		}
		for _, claim := range c.Auth.RoleClaims {
			if strings.TrimSpace(claim) == "" {
				return fmt.Errorf("auth.role_claims must not contain empty names")
			}
		}
	}

	if c.Upstream.MaxErrorBodyBytes <= 0 || c.Upstream.MaxResponseBytes <= 0 {
		return fmt.Errorf("upstream body limits must be positive")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q must be one of %q or %q", c.Log.Format, "text", "json")
	}

	return nil
}
