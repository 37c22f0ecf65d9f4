package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.RequiredRole != "chatUser" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.CORS.AllowHeaders != "Content-Type,Authorization" || cfg.CORS.AllowMethods != "POST,OPTIONS" {
		t.Errorf("cors = %+v", cfg.CORS)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %q", cfg.Metrics.Path)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  request_timeout: 2m
auth:
  required_role: gatewayUser
  role_claims: ["groups"]
log:
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.RequestTimeout != 2*time.Minute {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.MaxBodyBytes != Defaults().Server.MaxBodyBytes {
		t.Errorf("unset fields must keep defaults, max_body_bytes = %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Auth.RequiredRole != "gatewayUser" || len(cfg.Auth.RoleClaims) != 1 || cfg.Auth.RoleClaims[0] != "groups" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_PORT", "7070")
	t.Setenv("GATEWAY_AUTH_ENABLED", "false")
	t.Setenv("GATEWAY_REQUEST_TIMEOUT", "45s")
	t.Setenv("GATEWAY_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env must win over file, port = %d", cfg.Server.Port)
	}
	if cfg.Auth.Enabled {
		t.Errorf("auth should be disabled")
	}
	if cfg.Server.RequestTimeout != 45*time.Second {
		t.Errorf("request timeout = %s", cfg.Server.RequestTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad yaml", body: "server: [", wantErr: "parse config file"},
		{name: "bad port", body: "server:\n  port: 70000\n", wantErr: "server.port"},
		{name: "empty role", body: "auth:\n  required_role: \"  \"\n", wantErr: "auth.required_role"},
		{name: "empty claim", body: "auth:\n  role_claims: [\"roles\", \"\"]\n", wantErr: "auth.role_claims"},
		{name: "metrics path", body: "metrics:\n  path: metrics\n", wantErr: "metrics.path"},
		{name: "log level", body: "log:\n  level: verbose\n", wantErr: "log.level"},
		{name: "log format", body: "log:\n  format: xml\n", wantErr: "log.format"},
		{name: "env port", body: "", env: map[string]string{"GATEWAY_PORT": "eighty"}, wantErr: "GATEWAY_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateSkipsAuthChecksWhenDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.Enabled = false
	cfg.Auth.RequiredRole = ""
	cfg.Auth.RoleClaims = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
