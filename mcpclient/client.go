package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pathanalyze/mcp-client-go/internal/jsonrpc"
	"github.com/pathanalyze/mcp-client-go/internal/logctx"
	"github.com/pathanalyze/mcp-client-go/mcp"
)

// State is the session lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingEndpoint
	StateHandshakeReady
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingEndpoint:
		return "awaiting_endpoint"
	case StateHandshakeReady:
		return "handshake_ready"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrSessionClosed is returned when an operation is attempted on a session
// that has already been closed. Sessions are single-use: create a new client
// to reconnect.
var ErrSessionClosed = errors.New("mcp session closed")

// Client is a single-session MCP client over the HTTP+SSE transport.
// Outbound requests are POSTed to the server-advertised message endpoint;
// responses arrive asynchronously on the event stream and are correlated back
// to the waiting call by request id.
//
// A Client is safe for concurrent use: calls have independent ids and
// independent result slots, so their completions may arrive out of issue
// order without blocking each other.
type Client struct {
	baseURL    *url.URL
	ssePath    string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	clientInfo mcp.ImplementationInfo
	httpc      *http.Client
	log        *slog.Logger

	calls *correlator

	mu            sync.Mutex
	state         State
	endpoint      *url.URL
	endpointSet   bool
	endpointReady chan struct{}
	cancelListen  context.CancelFunc
	listenDone    chan struct{}
}

// New creates a disconnected client for the MCP server at serverURL.
func New(serverURL string, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", serverURL)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = slog.New(logctx.Handler{Handler: logger.Handler()})

	httpc := cfg.httpc
	if httpc == nil {
		httpc = &http.Client{}
	}

	return &Client{
		baseURL:       base,
		ssePath:       cfg.ssePath,
		timeout:       cfg.timeout,
		maxRetries:    cfg.maxRetries,
		retryDelay:    cfg.retryDelay,
		clientInfo:    cfg.clientInfo,
		httpc:         httpc,
		log:           logger,
		calls:         newCorrelator(),
		endpointReady: make(chan struct{}),
	}, nil
}

// Connect opens the event stream and blocks until the server advertises its
// message endpoint or the configured timeout elapses. On failure everything
// started so far is torn down: no background goroutine or transport handle
// leaks from a failed connect.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateDisconnected:
	case StateClosed, StateClosing:
		c.mu.Unlock()
		return connectionError("session closed", ErrSessionClosed)
	default:
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting

	// The listener lives for the session, not for the connect call.
	sctx := logctx.WithSessionData(context.Background(), &logctx.SessionData{ServerURL: c.baseURL.String()})
	lctx, cancel := context.WithCancel(sctx)
	c.cancelListen = cancel
	done := make(chan struct{})
	c.listenDone = done
	c.state = StateAwaitingEndpoint
	c.mu.Unlock()

	c.log.InfoContext(ctx, "connecting to MCP server", slog.String("url", c.baseURL.String()))

	go func() {
		defer close(done)
		c.listen(lctx)
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-c.endpointReady:
	case <-timer.C:
		c.Close()
		return connectionError("timeout waiting for message endpoint", nil)
	case <-ctx.Done():
		c.Close()
		return connectionError("connect cancelled", ctx.Err())
	}

	c.setState(StateHandshakeReady)
	c.log.InfoContext(ctx, "connected to MCP server", slog.String("endpoint", c.endpointString()))
	return nil
}

// Initialize performs the protocol handshake: an initialize request followed
// by the initialized notification. On success the session is active and
// tools may be called.
func (c *Client) Initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	c.log.InfoContext(ctx, "initializing MCP session")

	raw, err := c.call(ctx, mcp.InitializeMethod, mcp.InitializeMethod, mcp.InitializeParams{
		ProtocolVersion: mcp.LatestProtocolVersion,
		Capabilities:    mcp.ClientCapabilities{},
		ClientInfo:      c.clientInfo,
	})
	if err != nil {
		return nil, err
	}

	var result mcp.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, protocolError("decode initialize result", err)
	}

	if err := c.notify(ctx, mcp.InitializedNotification, struct{}{}); err != nil {
		return nil, err
	}

	c.setState(StateActive)
	c.log.InfoContext(ctx, "MCP session initialized",
		slog.String("server", result.ServerInfo.Name),
		slog.String("protocol_version", result.ProtocolVersion))
	return &result, nil
}

// CallTool invokes a named remote tool and returns its payload. A structured
// result object is returned as-is; the content-block form is reduced by
// decoding the first block's embedded text as the payload.
//
// A failed call leaves the session active and reusable.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error) {
	if c.State() != StateActive {
		return nil, connectionError("not connected to server", nil)
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	tctx := logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: name})
	c.log.DebugContext(tctx, "calling tool")

	raw, err := c.call(tctx, mcp.ToolsCallMethod, name, mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		return nil, err
	}

	var result mcp.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, protocolError("decode tool result", err)
	}
	if result.IsError {
		// An error discriminant always yields a classified failure, never a
		// bare payload.
		return nil, toolError(result.ErrorText())
	}
	payload, err := result.Payload()
	if err != nil {
		return nil, protocolError(err.Error(), nil)
	}
	return payload, nil
}

// Close cancels the listener, closes the transport, and rejects every
// still-pending call with a connection failure. Idempotent; a closed session
// cannot be reconnected.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed || c.state == StateClosing {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	cancel := c.cancelListen
	done := c.listenDone
	c.mu.Unlock()

	c.log.Info("closing MCP session")

	if cancel != nil {
		cancel()
	}
	if done != nil {
		// Listener cancellation is a normal outcome of close, not an error.
		<-done
	}

	c.httpc.CloseIdleConnections()
	c.calls.close(connectionError("connection closed", nil))

	c.mu.Lock()
	c.state = StateClosed
	c.endpoint = nil
	c.mu.Unlock()
	return nil
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Timeout is the per-call deadline configured for this client.
func (c *Client) Timeout() time.Duration { return c.timeout }

// MaxRetries is a caller-facing retry hint; the client never retries
// internally.
func (c *Client) MaxRetries() int { return c.maxRetries }

// RetryDelay is the suggested delay between caller-driven retries.
func (c *Client) RetryDelay() time.Duration { return c.retryDelay }

// call sends a correlated request and awaits its resolution. The pending
// slot is registered before the POST so a response can never race ahead of
// registration, and removed again if the POST fails.
func (c *Client) call(ctx context.Context, method, op string, params any) (json.RawMessage, error) {
	ep := c.messageEndpoint()
	if ep == nil {
		return nil, connectionError("no message endpoint available", nil)
	}

	id, pc, err := c.calls.register()
	if err != nil {
		return nil, err
	}

	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		c.calls.remove(id)
		return nil, protocolError("encode request", err)
	}

	rctx := logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: method, ID: strconv.FormatInt(id, 10)})
	c.log.DebugContext(rctx, "sending JSON-RPC request")

	if err := c.post(ctx, ep, req); err != nil {
		c.calls.remove(id)
		return nil, connectionError("request failed", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case resp := <-pc.respCh:
		if resp.Error != nil {
			return nil, classifyRPCError(op, resp.Error)
		}
		return resp.Result, nil
	case err := <-pc.errCh:
		return nil, err
	case <-timer.C:
		c.calls.remove(id)
		return nil, timeoutError(fmt.Sprintf("request %d timed out after %s", id, c.timeout))
	case <-ctx.Done():
		c.calls.remove(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, timeoutError(fmt.Sprintf("request %d: %s", id, ctx.Err()))
		}
		return nil, ctx.Err()
	}
}

// notify sends a fire-and-forget notification. No pending slot is created
// and no response is awaited.
func (c *Client) notify(ctx context.Context, name string, params any) error {
	ep := c.messageEndpoint()
	if ep == nil {
		return connectionError("no message endpoint available", nil)
	}

	note, err := jsonrpc.NewNotification(mcp.NotificationPrefix+name, params)
	if err != nil {
		return protocolError("encode notification", err)
	}

	c.log.DebugContext(ctx, "sending notification", slog.String("method", note.Method))

	if err := c.post(ctx, ep, note); err != nil {
		return connectionError("notification failed", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, ep *url.URL, msg *jsonrpc.Request) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

// setEndpoint records the message endpoint advertised on the stream. The
// first endpoint wins; it reports false once one is recorded.
func (c *Client) setEndpoint(raw string) bool {
	ref, err := url.Parse(raw)
	if err != nil {
		c.log.Error("invalid message endpoint", slog.String("endpoint", raw))
		return true // swallow: not an endpoint change
	}
	resolved := c.baseURL.ResolveReference(ref)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endpointSet {
		return c.endpoint != nil && c.endpoint.String() == resolved.String()
	}
	c.endpoint = resolved
	c.endpointSet = true
	close(c.endpointReady)
	return true
}

// clearEndpoint drops the recorded endpoint after stream termination so
// subsequent calls fail fast with a connection failure instead of hanging.
func (c *Client) clearEndpoint() {
	c.mu.Lock()
	c.endpoint = nil
	c.mu.Unlock()
}

func (c *Client) messageEndpoint() *url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

func (c *Client) endpointString() string {
	if ep := c.messageEndpoint(); ep != nil {
		return ep.String()
	}
	return ""
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Unmarshal decodes a tool payload into v, classifying a mismatch as a
// protocol failure.
func Unmarshal(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return protocolError("decode tool payload", err)
	}
	return nil
}
