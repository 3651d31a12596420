package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the supported JSON-RPC protocol version.
const ProtocolVersion = "2.0"

// Request represents a JSON-RPC request (with an ID) or notification (without ID).
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// NewRequest builds a request envelope with the given id, marshaling params.
// A nil params value produces an envelope without a params member.
func NewRequest(id int64, method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Request{
		JSONRPCVersion: ProtocolVersion,
		Method:         method,
		Params:         raw,
		ID:             NewRequestID(id),
	}, nil
}

// NewNotification builds a request envelope without an id. Notifications are
// fire-and-forget: no response is expected and none must be awaited.
func NewNotification(method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Request{
		JSONRPCVersion: ProtocolVersion,
		Method:         method,
		Params:         raw,
	}, nil
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return raw, nil
}

// Response represents a JSON-RPC response.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// ParseResponse decodes and validates a response envelope. It enforces
// JSON-RPC 2.0 semantics: the version member must match and exactly one of
// result or error must be present. Server-initiated requests and
// notifications (which carry a method member) are rejected.
func ParseResponse(data []byte) (*Response, error) {
	var raw struct {
		JSONRPCVersion string          `json:"jsonrpc"`
		Method         string          `json:"method,omitempty"`
		Result         json.RawMessage `json:"result,omitempty"`
		Error          *Error          `json:"error,omitempty"`
		ID             *RequestID      `json:"id,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw.JSONRPCVersion != ProtocolVersion {
		return nil, fmt.Errorf("invalid JSON-RPC version: expected %q, got %q", ProtocolVersion, raw.JSONRPCVersion)
	}
	if raw.Method != "" {
		return nil, fmt.Errorf("expected response, got %q message", raw.Method)
	}
	hasResult := len(raw.Result) > 0
	hasError := raw.Error != nil
	if hasResult && hasError {
		return nil, fmt.Errorf("response cannot have both result and error fields")
	}
	if !hasResult && !hasError {
		return nil, fmt.Errorf("response must have either result or error field")
	}
	return &Response{
		JSONRPCVersion: raw.JSONRPCVersion,
		Result:         raw.Result,
		Error:          raw.Error,
		ID:             raw.ID,
	}, nil
}
