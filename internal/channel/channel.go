package channel

import (
	"context"
	"fmt"
	"net"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/muurk/ssdpd/internal/logging"
)

const (
	// DiscoveryPort is the well-known SSDP port every participant shares
	DiscoveryPort = 1900
)

// MulticastGroupIPv4 is the SSDP IPv4 multicast group
var MulticastGroupIPv4 = net.IPv4(239, 255, 255, 250)

// Socket is the bound discovery socket. The default implementation wraps a UDP
// socket with golang.org/x/net/ipv4; tests substitute their own.
type Socket interface {
	net.PacketConn
	JoinGroup(ifi *net.Interface, group net.Addr) error
}

// Config controls how Open acquires the shared channel.
type Config struct {
	// Port to bind. Zero means DiscoveryPort.
	Port int

	// InterfaceNames restricts the interfaces the group is joined on.
	// Empty means every multicast-capable interface.
	InterfaceNames []string

	// Interfaces enumerates local interfaces. Nil means MulticastInterfaces.
	Interfaces func(names []string) ([]net.Interface, error)

	// Bind opens the socket with address reuse enabled. Nil means BindUDP.
	Bind func(port int) (Socket, error)
}

func (c Config) port() int {
	if c.Port == 0 {
		return DiscoveryPort
	}
	return c.Port
}

// Channel is the multicast socket bound to the discovery port and joined to the
// SSDP group on every selected interface. It is owned by exactly one Listener.
type Channel struct {
	sock   Socket
	ifaces []net.Interface

	closeOnce sync.Once
	closeErr  error
}

// Open enumerates local interfaces, binds the discovery port with address reuse
// and joins the multicast group on every interface. Any failure releases the
// socket before returning, so a failed Open leaves nothing behind.
func Open(cfg Config) (*Channel, error) {
	enumerate := cfg.Interfaces
	if enumerate == nil {
		enumerate = MulticastInterfaces
	}
	bind := cfg.Bind
	if bind == nil {
		bind = BindUDP
	}

	ifaces, err := enumerate(cfg.InterfaceNames)
	if err != nil {
		return nil, &ResourceError{Op: OpEnumerate, Err: err}
	}
	if len(ifaces) == 0 {
		logging.Warn("No multicast-capable interfaces found, listening without group membership")
	}

	sock, err := bind(cfg.port())
	if err != nil {
		return nil, &ResourceError{Op: OpBind, Err: err}
	}

	group := &net.UDPAddr{IP: MulticastGroupIPv4}
	for i := range ifaces {
		ifi := &ifaces[i]
		if err := sock.JoinGroup(ifi, group); err != nil {
			logging.LogMulticastJoin(ifi.Name, group.IP.String(), err)
			_ = sock.Close()
			return nil, &ResourceError{Op: OpJoin, Interface: ifi.Name, Err: err}
		}
		logging.LogMulticastJoin(ifi.Name, group.IP.String(), nil)
	}

	logging.Info("Discovery channel open",
		zap.Stringer("local_addr", sock.LocalAddr()),
		zap.Int("interfaces", len(ifaces)),
	)

	return &Channel{sock: sock, ifaces: ifaces}, nil
}

// PacketConn returns the underlying socket
func (c *Channel) PacketConn() net.PacketConn {
	return c.sock
}

// Interfaces returns the interfaces the group was joined on
func (c *Channel) Interfaces() []net.Interface {
	return slices.Clone(c.ifaces)
}

// LocalAddr returns the bound address
func (c *Channel) LocalAddr() net.Addr {
	return c.sock.LocalAddr()
}

// Close releases the socket. It is safe to call more than once.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.sock.Close()
	})
	return c.closeErr
}

// MulticastInterfaces returns the up, multicast-capable, non-loopback interfaces
// carrying an IPv4 address, optionally restricted to names. When nothing else
// qualifies and no names were requested, a multicast-capable loopback is used.
func MulticastInterfaces(names []string) ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var result, loopback []net.Interface
	for _, ifi := range all {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if len(names) > 0 && !slices.Contains(names, ifi.Name) {
			continue
		}
		if !hasIPv4(ifi) {
			continue
		}
		if ifi.Flags&net.FlagLoopback != 0 {
			loopback = append(loopback, ifi)
			continue
		}
		result = append(result, ifi)
	}

	if len(names) > 0 {
		return append(result, loopback...), nil
	}
	if len(result) == 0 {
		return loopback, nil
	}
	return result, nil
}

func hasIPv4(ifi net.Interface) bool {
	addrs, err := ifi.Addrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			return true
		}
	}
	return false
}

// BindUDP binds 0.0.0.0:port with SO_REUSEADDR (and SO_REUSEPORT where available),
// so other SSDP stacks on the host can share the port.
func BindUDP(port int) (Socket, error) {
	lc := net.ListenConfig{Control: reuseControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, err
	}
	return WrapPacketConn(pc), nil
}

// WrapPacketConn adapts an already bound IPv4 packet connection to Socket
func WrapPacketConn(pc net.PacketConn) Socket {
	return &udpSocket{PacketConn: pc, ipv4: ipv4.NewPacketConn(pc)}
}

type udpSocket struct {
	net.PacketConn
	ipv4 *ipv4.PacketConn
}

func (s *udpSocket) JoinGroup(ifi *net.Interface, group net.Addr) error {
	return s.ipv4.JoinGroup(ifi, group)
}
