package channel

import (
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/huin/goupnp/httpu"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/metrics"
)

// Handler receives every SSDP request read from the shared channel.
type Handler interface {
	ServeSSDP(w ResponseWriter, r *http.Request)
}

// HandlerFunc is a function-to-Handler adapter.
type HandlerFunc func(w ResponseWriter, r *http.Request)

// ServeSSDP calls f(w, r)
func (f HandlerFunc) ServeSSDP(w ResponseWriter, r *http.Request) {
	f(w, r)
}

// ResponseWriter replies to the sender of a request through the shared socket.
type ResponseWriter interface {
	RemoteAddr() net.Addr
	Reply(payload []byte) error
}

// Subscription identifies a registered Handler
type Subscription uint64

type subscriber struct {
	id      Subscription
	handler Handler
}

// Listener is the listener task and the handle passed to every participant.
// It serves SSDP datagrams from one Channel and fans them out to subscribers.
// A Listener lives for exactly one running epoch.
type Listener struct {
	ch  *Channel
	srv *httpu.Server

	mu     sync.RWMutex
	subs   []subscriber
	nextID Subscription

	aborted atomic.Bool
}

// NewListener builds the listener task for ch. The task does nothing until it
// is submitted to an Executor.
func NewListener(ch *Channel) *Listener {
	l := &Listener{ch: ch}
	l.srv = &httpu.Server{Handler: httpu.HandlerFunc(l.dispatch)}
	return l
}

// Subscribe registers h for every subsequent request. Participants subscribe
// during Start and keep only the returned Subscription.
func (l *Listener) Subscribe(h Handler) Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.subs = append(l.subs, subscriber{id: l.nextID, handler: h})
	return l.nextID
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (l *Listener) Unsubscribe(s Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = slices.DeleteFunc(l.subs, func(sub subscriber) bool {
		return sub.id == s
	})
}

// Subscribers returns the number of registered handlers
func (l *Listener) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// Interfaces returns the interfaces the channel joined the group on
func (l *Listener) Interfaces() []net.Interface {
	return l.ch.Interfaces()
}

// LocalAddr returns the address of the shared socket
func (l *Listener) LocalAddr() net.Addr {
	return l.ch.LocalAddr()
}

// Run serves the channel until Abort is called. It implements Task.
func (l *Listener) Run() error {
	err := l.srv.Serve(l.ch.PacketConn())
	if l.aborted.Load() {
		return nil
	}
	return err
}

// Abort stops the task and releases the channel. It implements Task.
func (l *Listener) Abort() {
	l.aborted.Store(true)
	if err := l.ch.Close(); err != nil {
		logging.Debug("Closing discovery channel", zap.Error(err))
	}
}

func (l *Listener) dispatch(r *http.Request) {
	metrics.SSDPMessagesTotal.WithLabelValues(r.Method).Inc()
	logging.LogSSDPMessage(r.RemoteAddr, r.Method, r.Header.Get("NTS"),
		firstNonEmpty(r.Header.Get("ST"), r.Header.Get("NT")), r.Header.Get("USN"))

	addr, err := net.ResolveUDPAddr("udp4", r.RemoteAddr)
	if err != nil {
		logging.Debug("Dropping SSDP message with unusable source",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	w := &replyWriter{conn: l.ch.PacketConn(), addr: addr}

	l.mu.RLock()
	subs := slices.Clone(l.subs)
	l.mu.RUnlock()

	for _, sub := range subs {
		sub.handler.ServeSSDP(w, r)
	}
}

type replyWriter struct {
	conn net.PacketConn
	addr *net.UDPAddr
}

func (w *replyWriter) RemoteAddr() net.Addr {
	return w.addr
}

func (w *replyWriter) Reply(payload []byte) error {
	_, err := w.conn.WriteTo(payload, w.addr)
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
