// ABOUTME: Configuration loading and parsing for solscan-gateway
// ABOUTME: Layers built-in defaults, a YAML file with env expansion, and env overrides

package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete solscan-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Limits    LimitsConfig    `yaml:"limits"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP bind address and the JSON-RPC mount path
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	MountPath string `yaml:"mount_path"`
}

// Addr returns the host:port string the HTTP listener binds to.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// UpstreamConfig holds the Solscan Pro API connection settings
type UpstreamConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	DefaultTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	DefaultTimeoutRaw string `yaml:"default_timeout"`
}

// LimitsConfig holds output size caps
type LimitsConfig struct {
	// LogPreview caps the length of request/response previews in logs
	LogPreview int `yaml:"log_preview"`
	// TextMax caps the serialized JSON embedded in a tool result text block
	TextMax int `yaml:"text_max"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file and no environment
// overrides are present. The upstream API key has no default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8000,
			MountPath: "/mcp",
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://pro-api.solscan.io/v2.0",
			DefaultTimeout: 30 * time.Second,
		},
		Limits: LimitsConfig{
			LogPreview: 2000,
			TextMax:    200000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the effective configuration. Defaults are applied first, then
// the YAML file at path (skipped when path is empty), then environment
// variable overrides. Environment variables in the format ${VAR_NAME} are
// expanded inside the file before parsing, and duration strings are parsed
// into time.Duration values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		// Expand environment variables in the raw YAML content
		expandedData := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides applies the environment variables the service has always
// honored. They win over both defaults and the config file.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SOLSCAN_BASE"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("SOLSCAN_API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := os.Getenv("MCP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MCP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MCP_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("MCP_PATH"); v != "" {
		cfg.Server.MountPath = v
	}
	if v := os.Getenv("MCP_LOG_PREVIEW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MCP_LOG_PREVIEW %q: %w", v, err)
		}
		cfg.Limits.LogPreview = n
	}
	if v := os.Getenv("MCP_TEXT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MCP_TEXT_MAX %q: %w", v, err)
		}
		cfg.Limits.TextMax = n
	}
	return nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.DefaultTimeout <= 0 {
		return fmt.Errorf("upstream.default_timeout must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.Server.MountPath, "/") {
		return fmt.Errorf("server.mount_path must start with '/'")
	}

	if c.Limits.LogPreview <= 0 {
		return fmt.Errorf("limits.log_preview must be positive")
	}
	if c.Limits.TextMax <= 0 {
		return fmt.Errorf("limits.text_max must be positive")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Upstream.DefaultTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Upstream.DefaultTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing default_timeout %q: %w", cfg.Upstream.DefaultTimeoutRaw, err)
		}
		cfg.Upstream.DefaultTimeout = d
	}

	return nil
}
