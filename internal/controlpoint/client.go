package controlpoint

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huin/goupnp"
	"github.com/huin/goupnp/scpd"
	"github.com/huin/goupnp/ssdp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/ssdpd/internal/catalog"
	"github.com/muurk/ssdpd/internal/channel"
	"github.com/muurk/ssdpd/internal/engine"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/metrics"
)

const (
	// DefaultSearchTarget is searched when Config.SearchTarget is empty
	DefaultSearchTarget = "ssdp:all"

	// DefaultMX is the M-SEARCH response window in seconds
	DefaultMX = 2

	// DefaultNumSends is how many times each M-SEARCH is sent
	DefaultNumSends = 2

	// DefaultCacheSize bounds the root description cache
	DefaultCacheSize = 128

	// DefaultFetchConcurrency bounds parallel SCPD fetches per device
	DefaultFetchConcurrency = 4

	// DefaultFetchTimeout bounds one device's description fetch
	DefaultFetchTimeout = 10 * time.Second

	updateBuffer     = 64
	subscriberBuffer = 32
)

// Config controls a discovery client
type Config struct {
	// SearchTarget is the ST of the initial and periodic M-SEARCH
	SearchTarget string

	// SearchInterval repeats the M-SEARCH round. Zero searches once at Start.
	SearchInterval time.Duration

	// MX is the response window in seconds (minimum 1)
	MX int

	NumSends         int
	CacheSize        int
	FetchConcurrency int
	FetchTimeout     time.Duration

	// DisableSearch only listens for NOTIFY announcements
	DisableSearch bool
}

func (c *Config) applyDefaults() {
	if c.SearchTarget == "" {
		c.SearchTarget = DefaultSearchTarget
	}
	if c.MX < 1 {
		c.MX = DefaultMX
	}
	if c.NumSends < 1 {
		c.NumSends = DefaultNumSends
	}
	if c.CacheSize < 1 {
		c.CacheSize = DefaultCacheSize
	}
	if c.FetchConcurrency < 1 {
		c.FetchConcurrency = DefaultFetchConcurrency
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
}

// Option configures a Client
type Option func(*Client)

// WithDescriber replaces the HTTP description fetcher
func WithDescriber(d Describer) Option {
	return func(c *Client) {
		c.describer = d
	}
}

// WithSearcher replaces the multicast searcher
func WithSearcher(s Searcher) Option {
	return func(c *Client) {
		c.searcher = s
	}
}

// WithClock replaces the clock driving periodic searches
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// Client is a UPnP control point. It implements engine.DiscoveryClient and
// engine.Cataloger.
type Client struct {
	cfg       Config
	describer Describer
	searcher  Searcher
	clock     clock.Clock
	cache     *lru.Cache[string, *goupnp.RootDevice]

	mu      sync.Mutex
	started bool
	ignored map[string]struct{}
	devices map[string]*catalog.Device
	order   []string
	subs    map[chan Event]struct{}

	reg     *ssdp.Registry
	updates chan ssdp.Update
	sub     channel.Subscription
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a discovery client
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.applyDefaults()

	cache, err := lru.New[string, *goupnp.RootDevice](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create description cache: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		cache:   cache,
		ignored: make(map[string]struct{}),
		devices: make(map[string]*catalog.Device),
		subs:    make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.describer == nil {
		c.describer = HTTPDescriber{}
	}
	if c.searcher == nil {
		c.searcher = MulticastSearcher{}
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	return c, nil
}

// IgnoreIdentifier drops announcements and search responses whose USN carries
// id. The "uuid:" prefix is optional. Devices already catalogued under id are
// removed.
func (c *Client) IgnoreIdentifier(id string) {
	id = catalog.CanonicalIdentifier(id)
	if id == "" {
		return
	}

	c.mu.Lock()
	c.ignored[id] = struct{}{}
	dev, known := c.devices[id]
	c.mu.Unlock()

	if known {
		c.forget(dev.Identifier)
	}
	logging.Debug("Ignoring identifier", zap.String("identifier", id))
}

// Ignored reports whether id is ignored
func (c *Client) Ignored(id string) bool {
	id = catalog.CanonicalIdentifier(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ignored[id]
	return ok
}

func (c *Client) ignoredUSN(usn string) bool {
	return c.Ignored(catalog.IdentifierFromUSN(usn))
}

// Start subscribes to NOTIFY messages on the shared channel and sends the first
// M-SEARCH round.
func (c *Client) Start(l *channel.Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("discovery client already started: %w", engine.ErrInvalidState)
	}

	c.reg = ssdp.NewRegistry()
	c.updates = make(chan ssdp.Update, updateBuffer)
	c.reg.AddListener(c.updates)

	reg := c.reg
	c.sub = l.Subscribe(channel.HandlerFunc(func(_ channel.ResponseWriter, r *http.Request) {
		if r.Method != "NOTIFY" || c.ignoredUSN(r.Header.Get("USN")) {
			return
		}
		reg.ServeMessage(r)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go c.consume(ctx, c.updates)

	if !c.cfg.DisableSearch {
		c.wg.Add(1)
		go c.searchLoop(ctx)
	}

	c.started = true
	logging.Info("Discovery client started",
		zap.String("search_target", c.cfg.SearchTarget),
		zap.Duration("search_interval", c.cfg.SearchInterval),
	)
	return nil
}

// Stop unsubscribes from the channel and stops the worker and searcher. The
// catalog is kept.
func (c *Client) Stop(l *channel.Listener) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return fmt.Errorf("discovery client not started: %w", engine.ErrInvalidState)
	}
	c.started = false
	sub, reg, updates, cancel := c.sub, c.reg, c.updates, c.cancel
	c.mu.Unlock()

	l.Unsubscribe(sub)
	// The worker keeps draining until the registry lets go of the channel.
	reg.RemoveListener(updates)
	cancel()
	c.wg.Wait()

	logging.Info("Discovery client stopped", zap.Int("devices", len(c.Catalog())))
	return nil
}

// Catalog returns the discovered devices in discovery order
func (c *Client) Catalog() []*catalog.Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*catalog.Device, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.devices[id])
	}
	return out
}

// Subscribe returns a channel of catalog events and a function that ends the
// subscription. Events are dropped for subscribers that fall behind.
func (c *Client) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Search runs one M-SEARCH round and catalogs the responders
func (c *Client) Search(ctx context.Context) error {
	responses, err := c.searcher.Search(ctx, c.cfg.SearchTarget, c.cfg.MX, c.cfg.NumSends)
	if err != nil {
		return err
	}
	for _, resp := range responses {
		usn := resp.Header.Get("USN")
		if c.ignoredUSN(usn) {
			continue
		}
		loc, err := resp.Location()
		if err != nil {
			logging.Debug("Search response without location", zap.String("usn", usn), zap.Error(err))
			continue
		}
		_ = c.discover(ctx, catalog.IdentifierFromUSN(usn), loc, "", false)
	}
	return nil
}

// Track catalogs the device described at location as if it had answered a
// search. Devices found by other means, such as mDNS, enter the catalog this way.
func (c *Client) Track(ctx context.Context, id, location string) error {
	loc, err := url.Parse(location)
	if err != nil || loc.Host == "" {
		return fmt.Errorf("invalid location %q", location)
	}
	id = catalog.CanonicalIdentifier(id)
	if id == "" {
		return fmt.Errorf("identifier required")
	}
	if c.Ignored(id) {
		return nil
	}
	return c.discover(ctx, id, loc, "", false)
}

func (c *Client) searchLoop(ctx context.Context) {
	defer c.wg.Done()

	c.searchOnce(ctx)
	if c.cfg.SearchInterval <= 0 {
		return
	}

	ticker := c.clock.Ticker(c.cfg.SearchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.searchOnce(ctx)
		}
	}
}

func (c *Client) searchOnce(ctx context.Context) {
	if err := c.Search(ctx); err != nil && ctx.Err() == nil {
		logging.Warn("M-SEARCH round failed", zap.Error(err))
	}
}

// consume applies registry updates until ctx is cancelled
func (c *Client) consume(ctx context.Context, updates <-chan ssdp.Update) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			c.apply(ctx, u)
		}
	}
}

func (c *Client) apply(ctx context.Context, u ssdp.Update) {
	id := catalog.IdentifierFromUSN(u.USN)
	switch u.EventType {
	case ssdp.EventAlive, ssdp.EventUpdate:
		if u.Entry == nil {
			return
		}
		loc := u.Entry.Location
		_ = c.discover(ctx, id, &loc, u.Entry.RemoteAddr, u.EventType == ssdp.EventUpdate)
	case ssdp.EventByeBye:
		c.forget(id)
	}
}

// discover catalogs the device described at loc. A device already known at the
// same location is only fetched again when refresh is set.
func (c *Client) discover(ctx context.Context, id string, loc *url.URL, remote string, refresh bool) error {
	if id == "" || loc == nil {
		return nil
	}
	key := loc.String()

	c.mu.Lock()
	existing, known := c.devices[id]
	c.mu.Unlock()
	if known && existing.Location == key && !refresh {
		return nil
	}
	if refresh {
		c.cache.Remove(key)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	root, err := c.describe(ctx, loc)
	if err != nil {
		logging.Warn("Failed to describe device",
			zap.String("identifier", id),
			zap.String("location", key),
			zap.Error(err),
		)
		return err
	}

	dev := catalog.FromRoot(root, key, c.serviceDescriptions(ctx, root))
	if dev.Identifier == "" {
		dev.Identifier = id
	}
	dev.RemoteAddr = remote
	c.store(dev)
	return nil
}

func (c *Client) describe(ctx context.Context, loc *url.URL) (*goupnp.RootDevice, error) {
	key := loc.String()
	if root, ok := c.cache.Get(key); ok {
		metrics.DescriptionCacheHitsTotal.Inc()
		return root, nil
	}
	root, err := c.describer.Describe(ctx, loc)
	if err != nil {
		metrics.DescriptionFetchesTotal.WithLabelValues("device", "error").Inc()
		return nil, err
	}
	metrics.DescriptionFetchesTotal.WithLabelValues("device", "ok").Inc()
	c.cache.Add(key, root)
	return root, nil
}

// serviceDescriptions fetches every service SCPD of root concurrently.
// Failed fetches leave the service without a description.
func (c *Client) serviceDescriptions(ctx context.Context, root *goupnp.RootDevice) map[string]*scpd.SCPD {
	services := root.Device.Services

	var mu sync.Mutex
	out := make(map[string]*scpd.SCPD, len(services))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.FetchConcurrency)
	for i := range services {
		srv := &services[i]
		if !srv.SCPDURL.Ok {
			continue
		}
		g.Go(func() error {
			doc, err := c.describer.ServiceDescription(gCtx, srv)
			if err != nil {
				metrics.DescriptionFetchesTotal.WithLabelValues("service", "error").Inc()
				logging.Debug("Failed to fetch service description",
					zap.String("service_type", srv.ServiceType),
					zap.Error(err),
				)
				return nil
			}
			metrics.DescriptionFetchesTotal.WithLabelValues("service", "ok").Inc()
			mu.Lock()
			out[srv.ServiceType] = doc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Client) store(dev *catalog.Device) {
	c.mu.Lock()
	if _, ignored := c.ignored[dev.Identifier]; ignored {
		c.mu.Unlock()
		return
	}
	typ := EventAdded
	if prev, ok := c.devices[dev.Identifier]; ok {
		typ = EventUpdated
		dev.DiscoveredAt = prev.DiscoveredAt
	} else {
		c.order = append(c.order, dev.Identifier)
	}
	c.devices[dev.Identifier] = dev
	count := len(c.devices)
	c.publishLocked(Event{Type: typ, Device: dev})
	c.mu.Unlock()

	metrics.DiscoveredDevices.Set(float64(count))
	if typ == EventAdded {
		logging.Info("Discovered device",
			zap.String("identifier", dev.Identifier),
			zap.String("friendly_name", dev.FriendlyName),
			zap.String("device_type", dev.DeviceType),
			zap.String("location", dev.Location),
		)
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	dev, ok := c.devices[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.devices, id)
	for i, known := range c.order {
		if known == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	count := len(c.devices)
	c.publishLocked(Event{Type: EventRemoved, Device: dev})
	c.mu.Unlock()

	c.cache.Remove(dev.Location)
	metrics.DiscoveredDevices.Set(float64(count))
	logging.Info("Device left", zap.String("identifier", id), zap.String("friendly_name", dev.FriendlyName))
}

func (c *Client) publishLocked(ev Event) {
	for ch := range c.subs {
		select {
		case ch <- ev:
		default:
			logging.Debug("Dropping catalog event for slow subscriber", zap.Stringer("type", ev.Type))
		}
	}
}
