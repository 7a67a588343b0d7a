// Package config handles configuration loading for solscan-gateway.
//
// # Overview
//
// Configuration is layered: built-in defaults, then an optional YAML file
// with environment variable expansion, then the environment variables the
// service has always honored. The result is validated and immutable after
// startup; request-handling code receives it by value and never reads the
// environment.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SOLSCAN_GATEWAY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/solscan-gateway/config.yaml
//  3. ~/.config/solscan-gateway/config.yaml
//
// Running without a file is fine; the defaults match the public Solscan Pro
// v2 endpoint and the usual bind address.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	upstream:
//	  api_key: "${SOLSCAN_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Environment Overrides
//
// These override both defaults and file values:
//
//	SOLSCAN_BASE      upstream.base_url
//	SOLSCAN_API_KEY   upstream.api_key
//	MCP_HOST          server.host
//	MCP_PORT          server.port
//	MCP_PATH          server.mount_path
//	MCP_LOG_PREVIEW   limits.log_preview
//	MCP_TEXT_MAX      limits.text_max
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  host: "0.0.0.0"
//	  port: 8000
//	  mount_path: "/mcp"
//
// Upstream API:
//
//	upstream:
//	  base_url: "https://pro-api.solscan.io/v2.0"
//	  api_key: "${SOLSCAN_API_KEY}"
//	  default_timeout: "30s"
//
// Output limits:
//
//	limits:
//	  log_preview: 2000
//	  text_max: 200000
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "solscan-gateway"
//	  auth_key: "${TS_AUTHKEY}"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load with an optional file path (empty string skips the file):
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
