package mcpclient

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pathanalyze/mcp-client-go/internal/jsonrpc"
)

func TestToolErrorRetryableHeuristic(t *testing.T) {
	cases := []struct {
		msg       string
		retryable bool
	}{
		{"Connection reset by timeout", true},
		{"request timeout after 30s", true},
		{"Connection refused", true},
		{"Invalid ROI", false},
		{"slide not found", false},
	}
	for _, tc := range cases {
		err := toolError(tc.msg)
		if err.Retryable != tc.retryable {
			t.Errorf("toolError(%q).Retryable = %v, want %v", tc.msg, err.Retryable, tc.retryable)
		}
		if err.Kind != KindTool {
			t.Errorf("toolError(%q).Kind = %v, want KindTool", tc.msg, err.Kind)
		}
	}
}

func TestClassifyRPCError(t *testing.T) {
	err := classifyRPCError("load_slide", &jsonrpc.Error{
		Code:    jsonrpc.ErrorCodeMethodNotFound,
		Message: "Method not found: load_slide",
	})
	if err.Kind != KindNotImplemented {
		t.Fatalf("expected KindNotImplemented, got %v", err.Kind)
	}
	if err.Method != "load_slide" {
		t.Fatalf("expected method name carried for diagnostics, got %q", err.Method)
	}
	if err.Retryable {
		t.Fatal("method-not-found must not be retryable")
	}

	err = classifyRPCError("load_slide", &jsonrpc.Error{
		Code:    jsonrpc.ErrorCodeInternalError,
		Message: "boom",
	})
	if err.Kind != KindProtocol {
		t.Fatalf("expected KindProtocol, got %v", err.Kind)
	}
	if err.Code != -32603 {
		t.Fatalf("expected server code preserved, got %d", err.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(connectionError("down", nil)) {
		t.Fatal("connection errors are retryable")
	}
	if !IsRetryable(timeoutError("late")) {
		t.Fatal("timeouts are retryable")
	}
	if IsRetryable(protocolError("garbled", nil)) {
		t.Fatal("protocol errors are not retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatal("unclassified errors are not retryable")
	}
	// Classification survives wrapping.
	wrapped := fmt.Errorf("calling tool: %w", timeoutError("late"))
	if !IsRetryable(wrapped) {
		t.Fatal("wrapped classified errors must keep their flag")
	}
}
