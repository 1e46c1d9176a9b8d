package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/controlpoint"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Events buffered per connection before they are dropped
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// feedConn is one websocket subscriber
type feedConn struct {
	conn *websocket.Conn
	send chan controlpoint.Event

	// snapshot holds devices sent on connect whose "added" event may still be
	// queued behind the subscription. Guarded by Hub.mu.
	snapshot map[string]struct{}
}

// deliver reports whether ev should be queued to fc. An "added" event for a
// device already sent in the snapshot is dropped once.
func (fc *feedConn) deliver(ev controlpoint.Event) bool {
	if ev.Device == nil || len(fc.snapshot) == 0 {
		return true
	}
	id := ev.Device.Identifier
	if _, ok := fc.snapshot[id]; !ok {
		return true
	}
	delete(fc.snapshot, id)
	return ev.Type != controlpoint.EventAdded
}

// Hub fans catalog events out to websocket connections. New connections first
// receive an "added" event for every device already catalogued. An "updated"
// event queued before the snapshot may still follow it; it repeats state the
// snapshot already carried.
type Hub struct {
	source EventSource

	mu     sync.Mutex
	conns  map[*feedConn]struct{}
	cancel func()
	done   chan struct{}
}

// NewHub creates a hub over source
func NewHub(source EventSource) *Hub {
	return &Hub{
		source: source,
		conns:  make(map[*feedConn]struct{}),
	}
}

// Start subscribes to the source and begins broadcasting
func (h *Hub) Start() {
	events, cancel := h.source.Subscribe()

	h.mu.Lock()
	h.cancel = cancel
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	go func() {
		defer close(done)
		for ev := range events {
			h.broadcast(ev)
		}
	}()
}

// Stop unsubscribes and closes every connection
func (h *Hub) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel = nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	h.mu.Lock()
	defer h.mu.Unlock()
	for fc := range h.conns {
		_ = fc.conn.Close()
	}
}

// Connections returns the number of open feed connections
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) broadcast(ev controlpoint.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for fc := range h.conns {
		if !fc.deliver(ev) {
			continue
		}
		select {
		case fc.send <- ev:
		default:
			metrics.FeedEventsDroppedTotal.Inc()
		}
	}
}

// ServeHTTP upgrades the request and streams events until the peer goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Feed upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	fc := &feedConn{
		conn:     conn,
		send:     make(chan controlpoint.Event, sendBuffer),
		snapshot: make(map[string]struct{}),
	}

	h.mu.Lock()
	// Taken under the hub lock so every later event is seen by broadcast
	for _, dev := range h.source.Catalog() {
		fc.snapshot[dev.Identifier] = struct{}{}
		select {
		case fc.send <- controlpoint.Event{Type: controlpoint.EventAdded, Device: dev}:
		default:
			metrics.FeedEventsDroppedTotal.Inc()
		}
	}
	h.conns[fc] = struct{}{}
	h.mu.Unlock()

	metrics.FeedConnections.Inc()
	logging.Debug("Feed connection opened", zap.String("remote_addr", r.RemoteAddr))

	go h.writePump(fc)
	h.readPump(fc)

	h.mu.Lock()
	delete(h.conns, fc)
	h.mu.Unlock()
	close(fc.send)

	metrics.FeedConnections.Dec()
	logging.Debug("Feed connection closed", zap.String("remote_addr", r.RemoteAddr))
}

// readPump discards client messages and returns when the connection closes
func (h *Hub) readPump(fc *feedConn) {
	defer func() { _ = fc.conn.Close() }()

	fc.conn.SetReadLimit(maxMessageSize)
	_ = fc.conn.SetReadDeadline(time.Now().Add(pongWait))
	fc.conn.SetPongHandler(func(string) error {
		return fc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := fc.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Feed connection error", zap.Error(err))
			}
			return
		}
	}
}

// writePump sends queued events and keepalive pings
func (h *Hub) writePump(fc *feedConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = fc.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-fc.send:
			_ = fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = fc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := fc.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := fc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
