// Package hub manages the set of open streaming connections and fans
// broadcast frames out to them.
//
// The hub owns the only collection reference to its connections. A
// connection enters the set in [Hub.Open] and leaves it in exactly one of
// three ways: its cancellation context fires, the whole hub is drained at
// shutdown, or (equivalently) its sink is closed. Removal and broadcast
// writes are serialized by a single mutex and check the same closed flag,
// so a connection present in the set is always writable: there is no state
// where a closed sink remains reachable for broadcast.
//
// Broadcast sends are non-blocking. A connection whose buffer is full
// (a slow or stalled consumer) has that frame dropped rather than stalling
// the fan-out for everyone else.
package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hypercast-dev/hypercast/internal/metrics"
	"github.com/hypercast-dev/hypercast/sse"
)

// sendBufferSize is the per-connection frame buffer. A consumer that falls
// this many frames behind starts losing broadcasts.
const sendBufferSize = 64

// ErrFull is returned by [Hub.Open] when the configured connection cap is
// reached.
var ErrFull = errors.New("hub: connection limit reached")

// Connection is one open streaming connection.
//
// The hub holds the only reference used for writes; the host reads the
// stream through [Connection.Reader] and owns the cancellation context that
// eventually tears the connection down.
type Connection struct {
	id   string
	send chan []byte

	// closed is guarded by the owning hub's mutex.
	closed bool

	// unsubscribe stops the context.AfterFunc registered at creation so a
	// removed connection does not leak its cancellation callback.
	unsubscribe func() bool
}

// ID returns the connection's identifier, used only for logging and
// debugging.
func (c *Connection) ID() string {
	return c.id
}

// Reader returns the readable side of the connection's sink. Reads block
// until a frame is broadcast and return io.EOF once the connection is
// closed. The reader is the streaming response body handed to the host.
func (c *Connection) Reader() io.Reader {
	return &streamReader{ch: c.send}
}

// streamReader adapts the connection's frame channel to io.Reader.
type streamReader struct {
	ch  <-chan []byte
	buf []byte
}

func (r *streamReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		frame, ok := <-r.ch
		if !ok {
			return 0, io.EOF
		}
		r.buf = frame
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Hub is the registry of open streaming connections.
//
// All methods are safe for concurrent use. The zero value is not usable;
// create hubs with [New].
type Hub struct {
	maxConns int
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	conns map[*Connection]struct{}

	keepAliveStop chan struct{}
	stopOnce      sync.Once
}

// New creates a [Hub].
//
// maxConns bounds the number of simultaneously open connections; zero means
// unbounded. keepAlive, when positive, starts a background ticker that
// broadcasts a comment frame at that interval so idle streams carry
// traffic. m may be nil to disable metrics.
func New(maxConns int, keepAlive time.Duration, logger *slog.Logger, m *metrics.Metrics) *Hub {
	h := &Hub{
		maxConns:      maxConns,
		logger:        logger,
		metrics:       m,
		conns:         make(map[*Connection]struct{}),
		keepAliveStop: make(chan struct{}),
	}

	if keepAlive > 0 {
		go h.keepAliveLoop(keepAlive)
	}
	return h
}

// Open registers a new streaming connection whose lifetime is bound to ctx.
//
// The connection-established frame is queued before the connection becomes
// reachable by broadcasts, so it is always the first thing a client reads.
// When ctx is cancelled the connection is removed from the set and its sink
// closed; both are idempotent.
//
// Returns [ErrFull] if the connection cap is reached.
func (h *Hub) Open(ctx context.Context) (*Connection, error) {
	c := &Connection{
		id:   uuid.NewString(),
		send: make(chan []byte, sendBufferSize),
	}
	// buffer is empty at this point, the send cannot block or drop
	c.send <- []byte(sse.Event("connected", c.id))

	h.mu.Lock()
	if h.maxConns > 0 && len(h.conns) >= h.maxConns {
		h.mu.Unlock()
		close(c.send)
		return nil, ErrFull
	}
	h.conns[c] = struct{}{}
	active := len(h.conns)
	h.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		h.Remove(c)
	})

	// the callback may already have fired for an ancestor-cancelled ctx;
	// in that case the connection is gone and the subscription is spent
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		stop()
	} else {
		c.unsubscribe = stop
		h.mu.Unlock()
	}

	h.metrics.StreamOpened()
	h.logger.Debug("stream opened", "connection_id", c.id, "active", active)
	return c, nil
}

// Remove takes the connection out of the set and closes its sink.
//
// Removing a connection that was already removed (or drained) is a no-op,
// so the cancellation callback, drain, and explicit removal can race
// freely.
func (h *Hub) Remove(c *Connection) {
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return
	}
	c.closed = true
	delete(h.conns, c)
	close(c.send)
	active := len(h.conns)
	unsub := c.unsubscribe
	h.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	h.metrics.StreamClosed()
	h.logger.Debug("stream closed", "connection_id", c.id, "active", active)
}

// Broadcast writes one pre-encoded frame to every open connection and
// returns the number of connections it reached.
//
// With no open connections Broadcast is a no-op. Connections whose buffer
// is full have the frame dropped; only removal (never a write) closes a
// sink, so sends here cannot panic.
func (h *Hub) Broadcast(frame []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.conns) == 0 {
		return 0
	}

	reached := 0
	for c := range h.conns {
		select {
		case c.send <- frame:
			reached++
		default:
			h.metrics.FrameDropped()
			h.logger.Warn("dropping frame for slow connection", "connection_id", c.id)
		}
	}

	h.metrics.BroadcastSent()
	return reached
}

// Len reports the number of currently open connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// DrainAll closes every open sink and empties the set.
//
// Called when the host process is quitting. Safe with zero connections and
// idempotent on repeated calls; each sink is closed exactly once.
func (h *Hub) DrainAll() {
	h.stopOnce.Do(func() {
		close(h.keepAliveStop)
	})

	h.mu.Lock()
	unsubs := make([]func() bool, 0, len(h.conns))
	drained := 0
	for c := range h.conns {
		c.closed = true
		close(c.send)
		if c.unsubscribe != nil {
			unsubs = append(unsubs, c.unsubscribe)
		}
		drained++
	}
	h.conns = make(map[*Connection]struct{})
	h.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	for i := 0; i < drained; i++ {
		h.metrics.StreamClosed()
		h.metrics.ConnectionDrained()
	}

	if drained > 0 {
		h.logger.Info("hub drained", "connections", drained)
	}
}

// keepAliveLoop broadcasts comment frames until the hub is drained.
func (h *Hub) keepAliveLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	frame := []byte(sse.Comment("keep-alive"))
	for {
		select {
		case <-ticker.C:
			h.Broadcast(frame)
		case <-h.keepAliveStop:
			return
		}
	}
}
