package mdns

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// TXT record keys published for every mirrored device
const (
	TextUDN        = "udn"
	TextDeviceType = "type"
	TextPath       = "path"
)

// Device represents an ssdpd-hosted device found through its mDNS mirror
type Device struct {
	// Instance is the mDNS instance name (the device's friendly name)
	Instance string

	// UDN is the UPnP device identifier (e.g., "uuid:2fac1234-31f8-11b4-a222-08002b34c003")
	UDN string

	// DeviceType is the UPnP device type URN
	DeviceType string

	// Hostname is the mDNS hostname of the publishing machine
	Hostname string

	// IP is the IPv4 address, or IPv6 when no IPv4 address was advertised
	IP string

	// Port is the HTTP port serving the device description
	Port int

	// Path of the description document (e.g., "/description.xml")
	Path string

	// Metadata contains every TXT record, including the ones above
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) %s at %s", d.Instance, d.DeviceType, d.UDN, d.Location())
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// Location returns the URL of the root description document
func (d *Device) Location() string {
	return d.BaseURL() + d.Path
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
