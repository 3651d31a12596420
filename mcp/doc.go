// Package mcp defines the protocol value types exchanged with an MCP server
// over the HTTP+SSE transport: the initialize handshake shapes, tool call
// parameters, and the dual-shape tool call result.
package mcp
