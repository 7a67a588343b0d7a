// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers defaults, YAML loading, env var expansion, and env overrides

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnvOverrides neutralizes the override variables so tests see only
// what they set themselves.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"SOLSCAN_BASE", "SOLSCAN_API_KEY",
		"MCP_HOST", "MCP_PORT", "MCP_PATH",
		"MCP_LOG_PREVIEW", "MCP_TEXT_MAX",
	} {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnvOverrides(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.MountPath != "/mcp" {
		t.Errorf("Server.MountPath = %q, want %q", cfg.Server.MountPath, "/mcp")
	}
	if cfg.Server.Addr() != "0.0.0.0:8000" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "0.0.0.0:8000")
	}
	if cfg.Upstream.BaseURL != "https://pro-api.solscan.io/v2.0" {
		t.Errorf("Upstream.BaseURL = %q, want default Solscan Pro URL", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.DefaultTimeout != 30*time.Second {
		t.Errorf("Upstream.DefaultTimeout = %v, want %v", cfg.Upstream.DefaultTimeout, 30*time.Second)
	}
	if cfg.Limits.LogPreview != 2000 {
		t.Errorf("Limits.LogPreview = %d, want 2000", cfg.Limits.LogPreview)
	}
	if cfg.Limits.TextMax != 200000 {
		t.Errorf("Limits.TextMax = %d, want 200000", cfg.Limits.TextMax)
	}
	if cfg.Tailscale.Enabled {
		t.Error("Tailscale.Enabled = true, want false")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnvOverrides(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  mount_path: "/rpc"

upstream:
  base_url: "https://solscan.example/v2.0"
  api_key: "test-key"
  default_timeout: "12s"

limits:
  log_preview: 500
  text_max: 1000

tailscale:
  enabled: false
  hostname: "solscan-gateway"

logging:
  level: "debug"
  format: "json"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.MountPath != "/rpc" {
		t.Errorf("Server.MountPath = %q, want %q", cfg.Server.MountPath, "/rpc")
	}
	if cfg.Upstream.BaseURL != "https://solscan.example/v2.0" {
		t.Errorf("Upstream.BaseURL = %q, want %q", cfg.Upstream.BaseURL, "https://solscan.example/v2.0")
	}
	if cfg.Upstream.APIKey != "test-key" {
		t.Errorf("Upstream.APIKey = %q, want %q", cfg.Upstream.APIKey, "test-key")
	}
	if cfg.Upstream.DefaultTimeout != 12*time.Second {
		t.Errorf("Upstream.DefaultTimeout = %v, want %v", cfg.Upstream.DefaultTimeout, 12*time.Second)
	}
	if cfg.Limits.LogPreview != 500 {
		t.Errorf("Limits.LogPreview = %d, want 500", cfg.Limits.LogPreview)
	}
	if cfg.Limits.TextMax != 1000 {
		t.Errorf("Limits.TextMax = %d, want 1000", cfg.Limits.TextMax)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnvOverrides(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
upstream:
  api_key: "only-the-key"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.APIKey != "only-the-key" {
		t.Errorf("Upstream.APIKey = %q, want %q", cfg.Upstream.APIKey, "only-the-key")
	}
	if cfg.Upstream.BaseURL != "https://pro-api.solscan.io/v2.0" {
		t.Errorf("Upstream.BaseURL = %q, want default kept", cfg.Upstream.BaseURL)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want default 8000", cfg.Server.Port)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("TEST_SOLSCAN_KEY", "key-from-env")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
upstream:
  api_key: "${TEST_SOLSCAN_KEY}"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.APIKey != "key-from-env" {
		t.Errorf("Upstream.APIKey = %q, want %q", cfg.Upstream.APIKey, "key-from-env")
	}
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("SOLSCAN_BASE", "https://override.example/v2.0/")
	t.Setenv("SOLSCAN_API_KEY", "override-key")
	t.Setenv("MCP_HOST", "127.0.0.1")
	t.Setenv("MCP_PORT", "9999")
	t.Setenv("MCP_PATH", "/other")
	t.Setenv("MCP_LOG_PREVIEW", "123")
	t.Setenv("MCP_TEXT_MAX", "456")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: "0.0.0.0"
  port: 8000
  mount_path: "/mcp"
upstream:
  base_url: "https://file.example/v2.0"
  api_key: "file-key"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Trailing slash is trimmed after overrides apply
	if cfg.Upstream.BaseURL != "https://override.example/v2.0" {
		t.Errorf("Upstream.BaseURL = %q, want env override with slash trimmed", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.APIKey != "override-key" {
		t.Errorf("Upstream.APIKey = %q, want %q", cfg.Upstream.APIKey, "override-key")
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.MountPath != "/other" {
		t.Errorf("Server.MountPath = %q, want %q", cfg.Server.MountPath, "/other")
	}
	if cfg.Limits.LogPreview != 123 {
		t.Errorf("Limits.LogPreview = %d, want 123", cfg.Limits.LogPreview)
	}
	if cfg.Limits.TextMax != 456 {
		t.Errorf("Limits.TextMax = %d, want 456", cfg.Limits.TextMax)
	}
}

func TestLoad_InvalidEnvNumber(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("MCP_PORT", "not-a-port")

	_, err := Load("")
	if err == nil {
		t.Error("Load() expected error for invalid MCP_PORT, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnvOverrides(t)

	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnvOverrides(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Invalid YAML content
	configContent := `
server:
  host: "0.0.0.0"
  port "missing colon"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnvOverrides(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
upstream:
  default_timeout: "invalid-duration"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErrSubstr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:          "missing base_url",
			mutate:        func(c *Config) { c.Upstream.BaseURL = "" },
			wantErrSubstr: "upstream.base_url is required",
		},
		{
			name:          "non-positive default timeout",
			mutate:        func(c *Config) { c.Upstream.DefaultTimeout = 0 },
			wantErrSubstr: "upstream.default_timeout must be positive",
		},
		{
			name:          "port too small",
			mutate:        func(c *Config) { c.Server.Port = 0 },
			wantErrSubstr: "server.port must be between",
		},
		{
			name:          "port too large",
			mutate:        func(c *Config) { c.Server.Port = 70000 },
			wantErrSubstr: "server.port must be between",
		},
		{
			name:          "mount path without leading slash",
			mutate:        func(c *Config) { c.Server.MountPath = "mcp" },
			wantErrSubstr: "server.mount_path must start with '/'",
		},
		{
			name:          "non-positive log preview",
			mutate:        func(c *Config) { c.Limits.LogPreview = 0 },
			wantErrSubstr: "limits.log_preview must be positive",
		},
		{
			name:          "non-positive text max",
			mutate:        func(c *Config) { c.Limits.TextMax = -1 },
			wantErrSubstr: "limits.text_max must be positive",
		},
		{
			name: "tailscale enabled requires hostname",
			mutate: func(c *Config) {
				c.Tailscale.Enabled = true
				c.Tailscale.Hostname = ""
			},
			wantErrSubstr: "tailscale.hostname is required",
		},
		{
			name: "tailscale with hostname is valid",
			mutate: func(c *Config) {
				c.Tailscale.Enabled = true
				c.Tailscale.Hostname = "solscan-gateway"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErrSubstr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
