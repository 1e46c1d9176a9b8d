package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/catalog"
	"github.com/muurk/ssdpd/internal/controlpoint"
	"github.com/muurk/ssdpd/internal/engine"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/version"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Addr     string
	CertPath string // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath  string
}

// StatusSource reports engine state for /healthz
type StatusSource interface {
	Status() engine.Status
}

// EventSource is a discovery client whose catalog is served at /devices and
// whose changes are streamed at /feed
type EventSource interface {
	Catalog() []*catalog.Device
	Subscribe() (<-chan controlpoint.Event, func())
}

// Health is the /healthz response body
type Health struct {
	Engine  engine.Status `json:"engine"`
	Version version.Info  `json:"version"`
}

// Server exposes engine status, the discovery catalog, a live websocket feed
// of catalog changes and Prometheus metrics over HTTP.
type Server struct {
	config    Config
	status    StatusSource
	events    EventSource
	tlsConfig *tls.Config
	hub       *Hub

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
	done     chan struct{}
}

// New creates a new Server instance. events may be nil when no discovery
// client runs; /devices and /feed then answer 404.
func New(config Config, status StatusSource, events EventSource) (*Server, error) {
	s := &Server{
		config: config,
		status: status,
		events: events,
	}

	if config.CertPath != "" || config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}
	if events != nil {
		s.hub = NewHub(events)
	}
	return s, nil
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}
	s.listener = listener

	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.hub != nil {
		s.hub.Start()
	}

	s.done = make(chan struct{})
	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Status server failed", zap.Error(err))
		}
	}(s.httpSrv, s.done)

	logging.Info("Status server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("tls", s.tlsConfig != nil),
	)
	return nil
}

// Addr returns the listening address, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.events != nil {
		mux.HandleFunc("GET /devices", s.handleDevices)
		mux.Handle("GET /feed", s.hub)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, Health{
		Engine:  s.status.Status(),
		Version: version.Get(),
	})
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.events.Catalog()
	if devices == nil {
		devices = []*catalog.Device{}
	}
	writeJSON(w, devices)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logging.Debug("Failed to write JSON response", zap.Error(err))
	}
}

// Shutdown gracefully shuts down the server and closes feed connections
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpSrv, s.done
	s.httpSrv, s.listener = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	logging.Info("Shutting down status server...")

	if s.hub != nil {
		s.hub.Stop()
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	<-done
	if err != nil {
		return fmt.Errorf("failed to shut down status server: %w", err)
	}
	return nil
}
