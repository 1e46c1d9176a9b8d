package host

import (
	"net"
)

// localIPFor picks the local IPv4 address a peer should use to reach us:
// one on the peer's subnet if possible, otherwise the first non-loopback one.
func localIPFor(peer net.IP) net.IP {
	if peer != nil && peer.IsLoopback() {
		return net.IPv4(127, 0, 0, 1)
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return net.IPv4(127, 0, 0, 1)
	}

	var fallback net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.To4() == nil {
			continue
		}
		if peer != nil && ipnet.Contains(peer) {
			return ipnet.IP.To4()
		}
		if fallback == nil && !ipnet.IP.IsLoopback() {
			fallback = ipnet.IP.To4()
		}
	}
	if fallback == nil {
		return net.IPv4(127, 0, 0, 1)
	}
	return fallback
}

// interfaceIPv4 returns the first IPv4 address of ifi, or nil
func interfaceIPv4(ifi *net.Interface) net.IP {
	if ifi == nil {
		return nil
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			return ipnet.IP.To4()
		}
	}
	return nil
}
