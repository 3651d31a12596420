package mcpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pathanalyze/mcp-client-go/mcp"
)

// Option configures a Client.
type Option func(*newConfig)

type newConfig struct {
	ssePath    string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	clientInfo mcp.ImplementationInfo
	httpc      *http.Client
	logger     *slog.Logger
}

func defaultConfig() newConfig {
	return newConfig{
		ssePath:    "/sse",
		timeout:    30 * time.Second,
		maxRetries: 3,
		retryDelay: time.Second,
		clientInfo: mcp.ImplementationInfo{Name: "pathanalyze", Version: "0.1.0"},
	}
}

// WithSSEPath sets the path of the server's event stream endpoint.
// Default: "/sse".
func WithSSEPath(path string) Option {
	return func(c *newConfig) { c.ssePath = path }
}

// WithTimeout bounds how long connect waits for the message endpoint and how
// long each call waits for its response. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *newConfig) { c.timeout = d }
}

// WithRetryPolicy records retry hints surfaced to callers via MaxRetries and
// RetryDelay. The client itself never retries: callers own the retry loop
// and branch on Error.Retryable.
func WithRetryPolicy(maxRetries int, delay time.Duration) Option {
	return func(c *newConfig) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// WithClientInfo sets the client identity sent in the initialize handshake.
func WithClientInfo(name, version string) Option {
	return func(c *newConfig) {
		c.clientInfo = mcp.ImplementationInfo{Name: name, Version: version}
	}
}

// WithHTTPClient sets the HTTP client used for both the event stream and
// message posts. The client must not carry a global timeout: the stream is
// long-lived and per-call deadlines are applied by the session.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *newConfig) { c.httpc = hc }
}

// WithLogger sets the slog logger. If not provided, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *newConfig) { c.logger = l }
}
