package mcpclient

import (
	"sync"
	"sync/atomic"

	"github.com/pathanalyze/mcp-client-go/internal/jsonrpc"
)

type pendingCall struct {
	respCh chan *jsonrpc.Response
	errCh  chan error
}

// correlator hands out strictly increasing request ids and routes responses
// to the call waiting on them. The pending table is the only shared mutable
// state between the stream listener and foreground calls; every
// read-modify-write on it is serialized by mu.
//
// Exactly one of three transitions terminates a pending id: the listener
// resolves it, the issuing call's timeout removes it, or close rejects it.
// The 1-buffered channels make resolution non-blocking for the listener and
// deliver at most one outcome to the caller.
type correlator struct {
	nextID atomic.Int64

	mu       sync.Mutex
	pending  map[int64]*pendingCall
	closed   bool
	closeErr error
}

func newCorrelator() *correlator {
	return &correlator{pending: make(map[int64]*pendingCall)}
}

// register allocates a fresh id and a pending slot for it. Ids are never
// reused, even across failed calls.
func (c *correlator) register() (int64, *pendingCall, error) {
	id := c.nextID.Add(1)
	pc := &pendingCall{
		respCh: make(chan *jsonrpc.Response, 1),
		errCh:  make(chan error, 1),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, c.closeErr
	}
	c.pending[id] = pc
	return id, pc, nil
}

// resolve claims the pending slot for id and delivers the response. Unmatched
// ids report false; the listener ignores those.
func (c *correlator) resolve(id int64, resp *jsonrpc.Response) bool {
	c.mu.Lock()
	pc, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if ok {
		pc.respCh <- resp
	}
	return ok
}

// remove discards the pending slot for id without delivering an outcome. Used
// by the issuing call on send failure or timeout.
func (c *correlator) remove(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// close rejects every still-pending call with err and prevents registration
// of new ones. Idempotent.
func (c *correlator) close(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeErr = err
	for id, pc := range c.pending {
		delete(c.pending, id)
		pc.errCh <- err
	}
}
