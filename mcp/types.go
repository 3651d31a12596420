package mcp

import (
	"encoding/json"
	"fmt"
)

// LatestProtocolVersion is the protocol revision this client speaks.
const LatestProtocolVersion = "2024-11-05"

// Method names used by the client.
const (
	InitializeMethod = "initialize"
	ToolsCallMethod  = "tools/call"
)

// NotificationPrefix is prepended to every notification method name.
const NotificationPrefix = "notifications/"

// InitializedNotification confirms readiness after a successful initialize.
const InitializedNotification = "initialized"

// ImplementationInfo describes the implementation name and version.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities advertises client features. This client advertises none.
type ClientCapabilities struct{}

// ServerCapabilities advertises server features relevant to tool calling.
type ServerCapabilities struct {
	Logging *struct{} `json:"logging,omitempty"`
	Tools   *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"tools,omitempty"`
}

// InitializeParams is the payload of the initialize handshake request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult is the server's handshake response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// CallToolParams is the payload of a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ContentBlock is a typed content part of a tool result. Only text blocks
// are meaningful to this client; other types are carried opaquely.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResult is the result of a tools/call request. The server reports
// tool-level failure through the isError discriminant; the content member is
// either a structured object or a list of content blocks whose first text
// block encodes the actual payload.
type CallToolResult struct {
	IsError bool            `json:"isError"`
	Content json.RawMessage `json:"content"`
}

// Structured returns the content as a raw JSON object, reporting false when
// the content is not an object.
func (r *CallToolResult) Structured() (json.RawMessage, bool) {
	if !isJSONObject(r.Content) {
		return nil, false
	}
	return r.Content, true
}

// TextBlocks returns the content as a list of content blocks, reporting
// false when the content is not an array.
func (r *CallToolResult) TextBlocks() ([]ContentBlock, bool) {
	if len(r.Content) == 0 || r.Content[0] != '[' {
		return nil, false
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(r.Content, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// ErrorText renders the content of a failed result as a human-readable
// message.
func (r *CallToolResult) ErrorText() string {
	if len(r.Content) == 0 {
		return "unknown error"
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// Payload reduces the dual content shape to the actual result payload: a
// structured object is returned as-is; a content-block array is reduced by
// decoding the first block's text as JSON.
func (r *CallToolResult) Payload() (json.RawMessage, error) {
	if obj, ok := r.Structured(); ok {
		return obj, nil
	}
	blocks, ok := r.TextBlocks()
	if !ok {
		return nil, fmt.Errorf("unexpected tool content shape: %s", truncate(r.Content, 64))
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("tool result content is empty")
	}
	var payload json.RawMessage
	if err := json.Unmarshal([]byte(blocks[0].Text), &payload); err != nil {
		return nil, fmt.Errorf("decode embedded text content: %w", err)
	}
	return payload, nil
}

func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func truncate(raw json.RawMessage, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
