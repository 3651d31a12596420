// Package config loads application settings from PATHANALYZE_-prefixed
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/pathanalyze/mcp-client-go/mcpclient"
)

// Settings holds the environment-driven configuration for the MCP client and
// its collaborators. Defaults are provided via struct tags.
type Settings struct {
	// MCPBaseURL is the base URL of the PathView MCP server.
	MCPBaseURL string `env:"PATHANALYZE_MCP_BASE_URL,default=http://127.0.0.1:9000"`
	// MCPSSEPath is the event stream path on the server.
	MCPSSEPath string `env:"PATHANALYZE_MCP_SSE_ENDPOINT,default=/sse"`
	// MCPTimeout bounds connect and per-call waits.
	MCPTimeout time.Duration `env:"PATHANALYZE_MCP_TIMEOUT,default=30s"`
	// MCPReconnectAttempts is a retry hint surfaced to callers.
	MCPReconnectAttempts int `env:"PATHANALYZE_MCP_RECONNECT_ATTEMPTS,default=3"`
	// MCPReconnectDelay is the suggested delay between caller-driven retries.
	MCPReconnectDelay time.Duration `env:"PATHANALYZE_MCP_RECONNECT_DELAY,default=1s"`

	// ClientName and ClientVersion identify this client in the handshake.
	ClientName    string `env:"PATHANALYZE_CLIENT_NAME,default=pathanalyze"`
	ClientVersion string `env:"PATHANALYZE_CLIENT_VERSION,default=0.1.0"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"PATHANALYZE_LOG_LEVEL,default=info"`

	// RunstoreRedisAddr selects the redis-backed run store when non-empty;
	// otherwise the in-memory store is used.
	RunstoreRedisAddr string `env:"PATHANALYZE_RUNSTORE_REDIS_ADDR"`
	// RunstoreKeyPrefix prefixes every run store key in redis.
	RunstoreKeyPrefix string `env:"PATHANALYZE_RUNSTORE_KEY_PREFIX,default=pathanalyze:runs:"`
}

// FromEnv loads and validates settings from the environment.
func FromEnv() (*Settings, error) {
	var s Settings
	if err := envdecode.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	u, err := url.Parse(s.MCPBaseURL)
	if err != nil {
		return fmt.Errorf("invalid PATHANALYZE_MCP_BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid PATHANALYZE_MCP_BASE_URL %q: scheme must be http or https", s.MCPBaseURL)
	}
	if s.MCPTimeout < 0 {
		return fmt.Errorf("PATHANALYZE_MCP_TIMEOUT must not be negative")
	}
	return nil
}

// SlogLevel maps the configured log level onto slog's level space. Unknown
// values fall back to info.
func (s *Settings) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ClientOptions translates the settings into mcpclient options.
func (s *Settings) ClientOptions() []mcpclient.Option {
	return []mcpclient.Option{
		mcpclient.WithSSEPath(s.MCPSSEPath),
		mcpclient.WithTimeout(s.MCPTimeout),
		mcpclient.WithRetryPolicy(s.MCPReconnectAttempts, s.MCPReconnectDelay),
		mcpclient.WithClientInfo(s.ClientName, s.ClientVersion),
	}
}
