package mcpclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/pathanalyze/mcp-client-go/internal/jsonrpc"
	"github.com/pathanalyze/mcp-client-go/internal/logctx"
)

var eventStreamMediaType = contenttype.NewMediaType("text/event-stream")

const (
	endpointEvent = "endpoint"
	messageEvent  = "message"
)

// listen owns the long-lived inbound stream for the lifetime of the session.
// It reads events until the stream ends or ctx is cancelled. Transport and
// parsing failures are contained here: they are logged, the recorded endpoint
// is cleared so subsequent calls fail fast, and nothing propagates across the
// goroutine boundary.
func (c *Client) listen(ctx context.Context) {
	sseURL := c.baseURL.JoinPath(c.ssePath)
	c.log.DebugContext(ctx, "starting event stream listener", slog.String("url", sseURL.String()))

	if err := c.consumeStream(ctx, sseURL.String()); err != nil && ctx.Err() == nil {
		c.log.ErrorContext(ctx, "event stream listener error", slog.String("error", err.Error()))
	}

	// The endpoint is only valid while the stream is alive. Clearing it makes
	// any subsequent call fail fast with a connection failure instead of
	// waiting out its timeout.
	c.clearEndpoint()
}

func (c *Client) consumeStream(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", eventStreamMediaType.String())
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream request failed: %s", resp.Status)
	}
	got := contenttype.NewMediaType(resp.Header.Get("Content-Type"))
	if got.Type != eventStreamMediaType.Type || got.Subtype != eventStreamMediaType.Subtype {
		return fmt.Errorf("unexpected stream content type %q", resp.Header.Get("Content-Type"))
	}

	return readEvents(resp.Body, func(name, data string) {
		c.handleEvent(ctx, name, data)
	})
}

func (c *Client) handleEvent(ctx context.Context, name, data string) {
	switch name {
	case endpointEvent:
		// First endpoint event wins. Servers are not expected to move the
		// message endpoint mid-session; if one does, keep the original.
		if !c.setEndpoint(data) {
			c.log.WarnContext(ctx, "ignoring endpoint change mid-session", slog.String("endpoint", data))
		}
	case messageEvent:
		resp, err := jsonrpc.ParseResponse([]byte(data))
		if err != nil {
			// Malformed payloads never crash the listener; the matching
			// pending request will time out instead.
			c.log.ErrorContext(ctx, "dropping malformed stream message", slog.String("error", err.Error()))
			return
		}
		id, ok := resp.ID.Int64()
		if !ok {
			c.log.DebugContext(ctx, "ignoring stream message without usable id")
			return
		}
		lctx := logctx.WithRPCMessage(ctx, &logctx.RPCMessage{ID: resp.ID.String()})
		if !c.calls.resolve(id, resp) {
			c.log.DebugContext(lctx, "no pending call for stream message")
		}
	default:
		c.log.DebugContext(ctx, "ignoring unknown stream event", slog.String("event", name))
	}
}

// readEvents frames a Server-Sent Events stream: an optional "event:" line
// names the event (default "message"), "data:" lines accumulate the payload,
// and a blank line dispatches. Comment lines (leading colon) are skipped.
func readEvents(r io.Reader, handle func(name, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	name := messageEvent
	var data []string
	dispatch := func() {
		if len(data) > 0 {
			handle(name, strings.Join(data, "\n"))
		}
		name = messageEvent
		data = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			dispatch()
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	dispatch()
	return scanner.Err()
}
