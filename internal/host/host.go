package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/koron/go-ssdp"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/channel"
	"github.com/muurk/ssdpd/internal/engine"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/metrics"
	"github.com/muurk/ssdpd/internal/version"
)

const (
	// DefaultMaxAge is the advertisement lifetime sent in CACHE-CONTROL
	DefaultMaxAge = 30 * time.Minute

	// DefaultHTTPAddr serves descriptions on an ephemeral port
	DefaultHTTPAddr = ":0"

	// RootDeviceTarget is the notification type every root device announces
	RootDeviceTarget = "upnp:rootdevice"

	// AllTarget is the search target matching everything
	AllTarget = "ssdp:all"

	shutdownTimeout = 5 * time.Second
)

// Config describes one advertised root device
type Config struct {
	FriendlyName string
	DeviceType   string

	// UUID of the device, with or without the "uuid:" prefix. Generated when empty.
	UUID string

	Manufacturer string
	ModelName    string

	// HTTPAddr is where descriptions are served (default ":0")
	HTTPAddr string

	// AdvertiseIP overrides the address placed in LOCATION headers
	AdvertiseIP string

	// MaxAge is the advertisement lifetime (default 30m). Alive messages are
	// repeated every MaxAge/2.
	MaxAge time.Duration

	// Server overrides the SERVER header
	Server string

	Services []ServiceConfig
}

// Mirror republishes a hosted device over another discovery protocol
type Mirror interface {
	Publish(instance string, port int, text []string) error
	Shutdown()
}

// Option configures a Host
type Option func(*Host)

// WithAnnouncer replaces the multicast announcer
func WithAnnouncer(a Announcer) Option {
	return func(h *Host) {
		h.announcer = a
	}
}

// WithClock replaces the clock driving re-announcements
func WithClock(c clock.Clock) Option {
	return func(h *Host) {
		h.clock = c
	}
}

// WithMirror publishes the device through m while the host is started
func WithMirror(m Mirror) Option {
	return func(h *Host) {
		h.mirror = m
	}
}

// target is one notification type and the USN announced for it
type target struct {
	nt  string
	usn string
}

// Host is an advertising host for one UPnP root device. It implements
// engine.AdvertisingHost and engine.BootCounter.
type Host struct {
	cfg     Config
	udn     string
	server  string
	maxAge  int
	targets []target

	description []byte
	scpds       [][]byte

	announcer Announcer
	clock     clock.Clock
	mirror    Mirror

	// port is read by search replies and announcements outside mu
	port atomic.Int32

	mu      sync.Mutex
	started bool
	bootID  int32
	sub     channel.Subscription
	httpSrv *http.Server
	cancel  context.CancelFunc
	done    chan struct{}
}

// New validates cfg and renders the device and service descriptions.
func New(cfg Config, opts ...Option) (*Host, error) {
	if cfg.FriendlyName == "" {
		return nil, errors.New("host: friendly name is required")
	}
	if cfg.DeviceType == "" {
		return nil, errors.New("host: device type is required")
	}

	id := uuid.New()
	if cfg.UUID != "" {
		parsed, err := uuid.Parse(trimUUIDPrefix(cfg.UUID))
		if err != nil {
			return nil, fmt.Errorf("host: invalid uuid %q: %w", cfg.UUID, err)
		}
		id = parsed
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}

	h := &Host{
		cfg:    cfg,
		udn:    "uuid:" + id.String(),
		server: cfg.Server,
		maxAge: int(cfg.MaxAge / time.Second),
		bootID: 1,
	}
	if h.server == "" {
		h.server = version.ServerHeader()
	}
	h.targets = buildTargets(h.udn, cfg)

	root := buildRoot(cfg, h.udn)
	desc, err := marshalRoot(root)
	if err != nil {
		return nil, err
	}
	h.description = desc
	for _, s := range cfg.Services {
		doc, err := marshalSCPD(s.SCPD)
		if err != nil {
			return nil, err
		}
		h.scpds = append(h.scpds, doc)
	}

	for _, opt := range opts {
		opt(h)
	}
	if h.announcer == nil {
		h.announcer = NewMulticastAnnouncer("")
	}
	if h.clock == nil {
		h.clock = clock.New()
	}
	return h, nil
}

func buildTargets(udn string, cfg Config) []target {
	targets := []target{
		{nt: RootDeviceTarget, usn: udn + "::" + RootDeviceTarget},
		{nt: udn, usn: udn},
		{nt: cfg.DeviceType, usn: udn + "::" + cfg.DeviceType},
	}
	seen := map[string]bool{}
	for _, s := range cfg.Services {
		if s.Type == "" || seen[s.Type] {
			continue
		}
		seen[s.Type] = true
		targets = append(targets, target{nt: s.Type, usn: udn + "::" + s.Type})
	}
	return targets
}

// Identifier returns the device UDN ("uuid:...")
func (h *Host) Identifier() string {
	return h.udn
}

// FriendlyName returns the configured friendly name
func (h *Host) FriendlyName() string {
	return h.cfg.FriendlyName
}

// AdvanceBootID increments BOOTID.UPNP.ORG. The engine calls it before each
// start of a new running epoch.
func (h *Host) AdvanceBootID() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bootID++
}

// BootID returns the current BOOTID.UPNP.ORG value
func (h *Host) BootID() int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bootID
}

// Description returns the rendered root description document
func (h *Host) Description() []byte {
	return h.description
}

// Port returns the HTTP port descriptions are served on, or 0 when stopped
func (h *Host) Port() int {
	return int(h.port.Load())
}

// Start serves the descriptions, subscribes to M-SEARCH requests on the shared
// channel and announces the device.
func (h *Host) Start(l *channel.Listener) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return fmt.Errorf("host %s already started: %w", h.udn, engine.ErrInvalidState)
	}

	ln, err := net.Listen("tcp", h.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen for description requests on %s: %w", h.cfg.HTTPAddr, err)
	}
	h.port.Store(int32(ln.Addr().(*net.TCPAddr).Port))
	h.httpSrv = &http.Server{
		Handler:           h.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Description server failed", zap.String("udn", h.udn), zap.Error(err))
		}
	}(h.httpSrv)

	h.sub = l.Subscribe(channel.HandlerFunc(h.serveSearch))

	h.announceAll(true)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	ticker := h.clock.Ticker(h.cfg.MaxAge / 2)
	go h.announceLoop(ctx, ticker, h.done)

	if h.mirror != nil {
		txt := []string{
			"udn=" + h.udn,
			"type=" + h.cfg.DeviceType,
			"path=" + DescriptionPath,
		}
		if err := h.mirror.Publish(h.cfg.FriendlyName, h.Port(), txt); err != nil {
			logging.Warn("Failed to publish mDNS mirror", zap.String("udn", h.udn), zap.Error(err))
		}
	}

	h.started = true
	logging.Info("Advertising device",
		zap.String("udn", h.udn),
		zap.String("friendly_name", h.cfg.FriendlyName),
		zap.Int("http_port", h.Port()),
		zap.Int32("boot_id", h.bootID),
	)
	return nil
}

// Stop withdraws the device: it unsubscribes from the channel, stops
// re-announcing, sends ssdp:byebye and shuts down the description server.
func (h *Host) Stop(l *channel.Listener) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return fmt.Errorf("host %s not started: %w", h.udn, engine.ErrInvalidState)
	}
	h.started = false

	l.Unsubscribe(h.sub)

	h.cancel()
	<-h.done

	h.announceAll(false)

	if h.mirror != nil {
		h.mirror.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.httpSrv.Shutdown(ctx)
	h.httpSrv = nil
	h.port.Store(0)
	if err != nil {
		return fmt.Errorf("failed to shut down description server: %w", err)
	}
	return nil
}

func (h *Host) announceLoop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.announceAll(true)
		}
	}
}

// announceAll sends alive or byebye for every target. Send failures are logged;
// a missed announcement is recovered by the next round or by searches.
func (h *Host) announceAll(alive bool) {
	nts := "ssdp:byebye"
	if alive {
		nts = "ssdp:alive"
	}
	location := ssdp.LocationProviderFunc(func(_ net.Addr, ifi *net.Interface) string {
		return h.locationFor(interfaceIPv4(ifi))
	})
	for _, t := range h.targets {
		var err error
		if alive {
			err = h.announcer.Alive(t.nt, t.usn, location, h.server, h.maxAge)
		} else {
			err = h.announcer.Bye(t.nt, t.usn)
		}
		if err != nil {
			logging.Warn("Failed to send SSDP announcement",
				zap.String("nts", nts),
				zap.String("nt", t.nt),
				zap.Error(err),
			)
			continue
		}
		metrics.AnnouncementsTotal.WithLabelValues(nts).Inc()
	}
}

// locationFor builds the description URL using ip, the advertise override or
// the default local address.
func (h *Host) locationFor(ip net.IP) string {
	host := h.cfg.AdvertiseIP
	if host == "" {
		if ip == nil {
			ip = localIPFor(nil)
		}
		host = ip.String()
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(h.Port())) + DescriptionPath
}

func (h *Host) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+DescriptionPath, func(w http.ResponseWriter, r *http.Request) {
		writeXML(w, h.description)
	})
	mux.HandleFunc("GET /scpd/{file}", func(w http.ResponseWriter, r *http.Request) {
		var n int
		if _, err := fmt.Sscanf(r.PathValue("file"), "%d.xml", &n); err != nil || n < 0 || n >= len(h.scpds) {
			http.NotFound(w, r)
			return
		}
		writeXML(w, h.scpds[n])
	})
	return mux
}

func writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func trimUUIDPrefix(id string) string {
	if len(id) >= 5 && (id[:5] == "uuid:" || id[:5] == "UUID:") {
		return id[5:]
	}
	return id
}
