// internal/transport/hub.go
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/sirupsen/logrus"
)

// DefaultSendBuffer is the per-connection outbound queue length.
const DefaultSendBuffer = 32

// Conn is one live client connection as seen by the hub.
type Conn struct {
	ID  string
	out chan protocol.Message

	done      chan struct{}
	closeOnce sync.Once
}

// Outbound is drained by the connection's write pump.
func (c *Conn) Outbound() <-chan protocol.Message {
	return c.out
}

// Done is closed when the hub asks the connection to shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub tracks live connections by id and delivers outbound events to them.
// Delivery never blocks: a message for a full or unknown connection is dropped and logged.
// Hub satisfies session.Publisher.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]*Conn
	closing    bool
	empty      chan struct{} // closed while conns is empty
	sendBuffer int
	logger     *logrus.Entry
}

// NewHub creates an empty hub. sendBuffer <= 0 selects DefaultSendBuffer.
func NewHub(logger *logrus.Logger, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	empty := make(chan struct{})
	close(empty)
	return &Hub{
		conns:      make(map[string]*Conn),
		empty:      empty,
		sendBuffer: sendBuffer,
		logger:     logger.WithField("component", "hub"),
	}
}

// Add registers a new connection under a fresh UUID. Once CloseAll has been called,
// the new connection is born already asked to close.
func (h *Hub) Add() *Conn {
	conn := &Conn{
		ID:   uuid.NewString(),
		out:  make(chan protocol.Message, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.conns) == 0 {
		h.empty = make(chan struct{})
	}
	h.conns[conn.ID] = conn
	if h.closing {
		conn.shutdown()
	}
	return conn
}

// Remove forgets a connection. Messages addressed to it afterwards are dropped.
// The outbound channel is left open; the write pump stops on context cancellation.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[id]; !ok {
		return
	}
	delete(h.conns, id)
	if len(h.conns) == 0 {
		close(h.empty)
	}
}

// Wait blocks until every connection has been removed or ctx is done.
func (h *Hub) Wait(ctx context.Context) error {
	for {
		h.mu.RLock()
		empty, n := h.empty, len(h.conns)
		h.mu.RUnlock()
		if n == 0 {
			return nil
		}
		select {
		case <-empty:
		case <-ctx.Done():
			return fmt.Errorf("%d connections still open: %w", n, ctx.Err())
		}
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Unicast queues msg for one connection.
func (h *Hub) Unicast(connID string, msg protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendLocked(connID, msg)
}

// Multicast queues msg for each listed connection.
func (h *Hub) Multicast(connIDs []string, msg protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		h.sendLocked(id, msg)
	}
}

// Broadcast queues msg for every live connection.
func (h *Hub) Broadcast(msg protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.conns {
		h.sendLocked(id, msg)
	}
}

// CloseAll asks every live connection, and any added later, to close once its queued
// messages are written. Connections stay registered until their handler calls Remove.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closing = true
	for _, conn := range h.conns {
		conn.shutdown()
	}
	h.logger.Infof("asked %d connections to close", len(h.conns))
}

func (h *Hub) sendLocked(connID string, msg protocol.Message) {
	conn, ok := h.conns[connID]
	if !ok {
		h.logger.Debugf("dropped '%s' for unknown connection %s", msg.Type, connID)
		return
	}
	select {
	case conn.out <- msg:
	default:
		h.logger.Warnf("outbound queue for %s full, dropped message type '%s'", connID, msg.Type)
	}
}
