package mcpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// stubMCPServer simulates the PathView MCP server: an SSE endpoint that
// advertises the message endpoint and carries responses, plus a message
// endpoint that accepts JSON-RPC posts.
type stubMCPServer struct {
	srv *httptest.Server

	mu sync.Mutex
	// advertiseEndpoint controls whether new SSE connections receive the
	// endpoint event. Disable to exercise connect timeouts.
	advertiseEndpoint bool

	streams  map[chan string]struct{}
	tools    map[string]func(args map[string]any) (any, error)
	silent   map[string]bool
	requests []map[string]any
}

func newStubMCPServer() *stubMCPServer {
	s := &stubMCPServer{
		advertiseEndpoint: true,
		streams:           make(map[chan string]struct{}),
		tools:             make(map[string]func(args map[string]any) (any, error)),
		silent:            make(map[string]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.HandleFunc("POST /message", s.handleMessage)
	s.srv = httptest.NewServer(mux)
	return s
}

func (s *stubMCPServer) URL() string { return s.srv.URL }

func (s *stubMCPServer) Close() { s.srv.Close() }

// setAdvertiseEndpoint controls whether future SSE connections receive the
// endpoint event.
func (s *stubMCPServer) setAdvertiseEndpoint(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advertiseEndpoint = v
}

// addTool registers a tool handler. A returned error becomes an
// isError:true result carrying the error text.
func (s *stubMCPServer) addTool(name string, fn func(args map[string]any) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[name] = fn
}

// addSilentTool registers a tool whose call is accepted but never answered.
func (s *stubMCPServer) addSilentTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent[name] = true
}

func (s *stubMCPServer) recordedRequests() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.requests...)
}

func (s *stubMCPServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)

	s.mu.Lock()
	advertise := s.advertiseEndpoint
	s.mu.Unlock()
	if advertise {
		fmt.Fprint(w, "event: endpoint\ndata: /message\n\n")
	}
	flusher.Flush()

	events := make(chan string, 16)
	s.mu.Lock()
	s.streams[events] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.streams, events)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			fmt.Fprint(w, ev)
			flusher.Flush()
		}
	}
}

func (s *stubMCPServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg map[string]any
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, msg)
	s.mu.Unlock()

	method, _ := msg["method"].(string)
	switch method {
	case "initialize":
		s.respond(map[string]any{
			"jsonrpc": "2.0",
			"id":      msg["id"],
			"result": map[string]any{
				"protocolVersion": "2024-11-05",
				"capabilities":    map[string]any{},
				"serverInfo":      map[string]any{"name": "stub", "version": "0.1.0"},
			},
		})
	case "notifications/initialized":
		// fire-and-forget
	case "tools/call":
		params, _ := msg["params"].(map[string]any)
		name, _ := params["name"].(string)
		args, _ := params["arguments"].(map[string]any)

		s.mu.Lock()
		fn, found := s.tools[name]
		quiet := s.silent[name]
		s.mu.Unlock()

		switch {
		case quiet:
			// accepted, never answered
		case found:
			result, err := fn(args)
			body := map[string]any{"isError": false, "content": result}
			if err != nil {
				body = map[string]any{"isError": true, "content": err.Error()}
			}
			s.respond(map[string]any{"jsonrpc": "2.0", "id": msg["id"], "result": body})
		default:
			s.respond(map[string]any{
				"jsonrpc": "2.0",
				"id":      msg["id"],
				"error":   map[string]any{"code": -32601, "message": "Method not found: " + name},
			})
		}
	default:
		s.respond(map[string]any{
			"jsonrpc": "2.0",
			"id":      msg["id"],
			"error":   map[string]any{"code": -32601, "message": "Method not found: " + method},
		})
	}
	w.WriteHeader(http.StatusOK)
}

// respond broadcasts a message event to every connected stream.
func (s *stubMCPServer) respond(msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ev := fmt.Sprintf("event: message\ndata: %s\n\n", data)
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.streams {
		select {
		case ch <- ev:
		default:
		}
	}
}
