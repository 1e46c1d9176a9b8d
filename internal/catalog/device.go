package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/scpd"
)

const uuidPrefix = "uuid:"

// Service is one service of a discovered device
type Service struct {
	// Type is the service type URN (e.g., "urn:schemas-upnp-org:service:SwitchPower:1")
	Type string

	// ID is the service id URN
	ID string

	// SCPD is the service description, nil if it could not be fetched
	SCPD *scpd.SCPD
}

// Device represents a discovered UPnP root device
type Device struct {
	// Identifier is the device UDN (e.g., "uuid:2fac1234-31f8-11b4-a222-08002b34c003")
	Identifier string

	FriendlyName string
	DeviceType   string
	Manufacturer string
	ModelName    string

	// Location is the URL of the root description document
	Location string

	// RemoteAddr is the address the announcement or search response came from
	RemoteAddr string

	Services []Service

	// DiscoveredAt is when the device was first catalogued
	DiscoveredAt time.Time
}

// FromRoot builds a catalog entry from a fetched root description. scpds maps
// service type to its description; services without one keep a nil SCPD.
func FromRoot(root *goupnp.RootDevice, location string, scpds map[string]*scpd.SCPD) *Device {
	d := &Device{
		Identifier:   CanonicalIdentifier(root.Device.UDN),
		FriendlyName: root.Device.FriendlyName,
		DeviceType:   root.Device.DeviceType,
		Manufacturer: root.Device.Manufacturer,
		ModelName:    root.Device.ModelName,
		Location:     location,
		DiscoveredAt: time.Now(),
	}
	for _, srv := range root.Device.Services {
		d.Services = append(d.Services, Service{
			Type: srv.ServiceType,
			ID:   srv.ServiceId,
			SCPD: scpds[srv.ServiceType],
		})
	}
	return d
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) %s at %s", d.FriendlyName, d.DeviceType, d.Identifier, d.Location)
}

// UUID returns the identifier without its "uuid:" prefix
func (d *Device) UUID() string {
	return strings.TrimPrefix(d.Identifier, uuidPrefix)
}

// CanonicalIdentifier returns id with exactly one "uuid:" prefix, or "" for an
// empty id.
func CanonicalIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if len(id) >= len(uuidPrefix) && strings.EqualFold(id[:len(uuidPrefix)], uuidPrefix) {
		id = id[len(uuidPrefix):]
	}
	if id == "" {
		return ""
	}
	return uuidPrefix + id
}

// IdentifierFromUSN extracts the device identifier from a USN such as
// "uuid:X::urn:schemas-upnp-org:device:Basic:1".
func IdentifierFromUSN(usn string) string {
	id, _, _ := strings.Cut(usn, "::")
	return CanonicalIdentifier(id)
}
