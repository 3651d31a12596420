package mcpclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pathanalyze/mcp-client-go/internal/jsonrpc"
)

// Kind classifies a failure independently of transport.
type Kind int

const (
	// KindConnection indicates the transport was unreachable, refused, or
	// reset. Always retryable.
	KindConnection Kind = iota
	// KindTimeout indicates no resolution arrived within the configured
	// deadline. Always retryable.
	KindTimeout
	// KindTool indicates the server explicitly reported that the remote
	// operation failed. Retryable only when the failure text describes a
	// transient condition.
	KindTool
	// KindProtocol indicates a malformed response or an unexpected shape.
	// Not retryable.
	KindProtocol
	// KindNotImplemented indicates the requested operation is unsupported
	// by the server. Not retryable.
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindTool:
		return "tool"
	case KindProtocol:
		return "protocol"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error is a classified failure surfaced by the client. Callers are expected
// to branch on Retryable (or Kind) rather than on message text.
type Error struct {
	Kind      Kind
	Code      int
	Message   string
	Retryable bool
	// Method carries the unsupported operation name for KindNotImplemented.
	Method string

	cause error
}

func (e *Error) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("mcp %s error (%d): %s: %s", e.Kind, e.Code, e.Method, e.Message)
	}
	return fmt.Sprintf("mcp %s error (%d): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// IsRetryable reports whether err is a classified failure worth retrying.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

func connectionError(msg string, cause error) *Error {
	return &Error{
		Kind:      KindConnection,
		Code:      int(jsonrpc.ErrorCodeServerError),
		Message:   msg,
		Retryable: true,
		cause:     cause,
	}
}

func timeoutError(msg string) *Error {
	return &Error{
		Kind:      KindTimeout,
		Code:      int(jsonrpc.ErrorCodeServerError),
		Message:   msg,
		Retryable: true,
	}
}

// toolError classifies a server-reported tool failure. The retryable flag is
// a textual heuristic: failure descriptions mentioning a timeout or a
// connection problem are assumed transient.
func toolError(msg string) *Error {
	return &Error{
		Kind:      KindTool,
		Code:      int(jsonrpc.ErrorCodeInternalError),
		Message:   msg,
		Retryable: transientFailure(msg),
	}
}

func protocolError(msg string, cause error) *Error {
	return &Error{
		Kind:    KindProtocol,
		Code:    int(jsonrpc.ErrorCodeInternalError),
		Message: msg,
		cause:   cause,
	}
}

func notImplementedError(method, msg string) *Error {
	return &Error{
		Kind:    KindNotImplemented,
		Code:    int(jsonrpc.ErrorCodeMethodNotFound),
		Message: msg,
		Method:  method,
	}
}

// classifyRPCError maps a JSON-RPC error object delivered on the stream to a
// classified failure. Method-not-found gets its own kind so callers can tell
// a missing tool apart from a malformed exchange.
func classifyRPCError(method string, rpcErr *jsonrpc.Error) *Error {
	if rpcErr.Code == jsonrpc.ErrorCodeMethodNotFound {
		return notImplementedError(method, rpcErr.Message)
	}
	return &Error{
		Kind:    KindProtocol,
		Code:    int(rpcErr.Code),
		Message: rpcErr.Message,
	}
}

func transientFailure(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "connection")
}
