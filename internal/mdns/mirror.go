package mdns

import (
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/logging"
)

// registerFunc matches zeroconf.Register
type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (*zeroconf.Server, error)

// Mirror publishes one hosted device as an mDNS service so it can be found on
// networks where SSDP multicast is filtered. It implements host.Mirror.
type Mirror struct {
	// Interfaces restricts publication. Nil means all multicast interfaces.
	Interfaces []net.Interface

	register registerFunc

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMirror creates a mirror publishing on ifaces (nil for all)
func NewMirror(ifaces []net.Interface) *Mirror {
	return &Mirror{
		Interfaces: ifaces,
		register:   zeroconf.Register,
	}
}

// Publish registers instance under ServiceType. A previous registration is
// withdrawn first.
func (m *Mirror) Publish(instance string, port int, text []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownLocked()

	server, err := m.register(instance, ServiceType, ServiceDomain, port, text, m.Interfaces)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service %q: %w", instance, err)
	}
	m.server = server

	logging.Debug("Published mDNS mirror",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return nil
}

// Shutdown withdraws the registration. It is safe to call when nothing is
// published.
func (m *Mirror) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownLocked()
}

// Published reports whether a registration is active
func (m *Mirror) Published() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.server != nil
}

func (m *Mirror) shutdownLocked() {
	if m.server == nil {
		return
	}
	m.server.Shutdown()
	m.server = nil
}
