// Package mcpclient implements a single-session MCP client over the
// HTTP+SSE transport used by the PathView server.
//
// The transport has two channels: outbound JSON-RPC requests are POSTed to a
// message endpoint the server advertises on a long-lived event stream, and
// responses arrive asynchronously as events on that same stream. The client
// correlates the two by request id and delivers each call's outcome exactly
// once, via resolution, timeout, or session close.
//
// Usage:
//
//	client, err := mcpclient.New("http://127.0.0.1:9000")
//	if err != nil { ... }
//	defer client.Close()
//
//	if err := client.Connect(ctx); err != nil { ... }
//	if _, err := client.Initialize(ctx); err != nil { ... }
//
//	payload, err := client.CallTool(ctx, "load_slide", map[string]any{"path": "/x.svs"})
//
// Every failure crossing the public surface is a classified *Error carrying
// a code, a message, and a retryable flag. The client performs no retries of
// its own; callers branch on Error.Retryable.
package mcpclient
