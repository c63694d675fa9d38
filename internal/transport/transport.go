// Package transport is the Broadcast Transport (C8): a single Post
// operation that pushes a payload to a given connectionId and classifies
// the outcome as ok, gone, forbidden, or transient.
package transport

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Result is the outcome of one Post.
type Result int

const (
	ResultOK Result = iota
	ResultGone
	ResultForbidden
	ResultTransient
)

// Transport is the C8 contract. The connectionId is an opaque endpoint
// learned at connect time and held for the life of the process — in this
// single-process implementation that means the *websocket.Conn itself.
type Transport interface {
	// Register associates a connectionId with its live socket. Called by
	// WebSocket Admission once the upgrade succeeds.
	Register(connectionID string, conn *websocket.Conn)
	// Unregister drops a connectionId's socket without closing it (the
	// caller owns the close). Safe to call more than once.
	Unregister(connectionID string)
	// Post pushes payload to connectionID and classifies the result.
	Post(connectionID string, payload interface{}) Result
	// Ping writes a control-frame ping to connectionID, sharing the same
	// per-connection write serialization as Post — gorilla/websocket
	// forbids concurrent writers on one *websocket.Conn, and the Hub's
	// keepalive ticker writes pings from a different goroutine than the
	// one fanning out broadcasts.
	Ping(connectionID string) Result
}

// socket pairs a live connection with the mutex serializing writes to it.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Local is an in-process Transport: every connection this server holds is a
// live *websocket.Conn in a local map. A connectionId with no registered
// socket is Gone — there is nothing else that connectionId could mean once
// the process that owned it has lost track of it.
type Local struct {
	mu    sync.RWMutex
	conns map[string]*socket
}

// NewLocal builds an empty Local transport.
func NewLocal() *Local {
	return &Local{conns: make(map[string]*socket)}
}

func (t *Local) Register(connectionID string, conn *websocket.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[connectionID] = &socket{conn: conn}
}

func (t *Local) Unregister(connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, connectionID)
}

func (t *Local) Post(connectionID string, payload interface{}) Result {
	s, ok := t.lookup(connectionID)
	if !ok {
		return ResultGone
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return ResultTransient
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return classifyWriteError(err)
	}
	return ResultOK
}

func (t *Local) Ping(connectionID string) Result {
	s, ok := t.lookup(connectionID)
	if !ok {
		return ResultGone
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		return classifyWriteError(err)
	}
	return ResultOK
}

func (t *Local) lookup(connectionID string) (*socket, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.conns[connectionID]
	return s, ok
}

func classifyWriteError(err error) Result {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		return ResultGone
	}
	if _, ok := err.(*websocket.CloseError); ok {
		return ResultGone
	}
	// net.OpError and similar wrapped "use of closed network connection"
	// errors mean the socket is already gone from under us.
	if isClosedConnErr(err) {
		return ResultGone
	}
	return ResultTransient
}

func isClosedConnErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "use of closed network connection")
}
