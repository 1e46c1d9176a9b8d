package engine

import (
	"github.com/muurk/ssdpd/internal/catalog"
	"github.com/muurk/ssdpd/internal/channel"
)

// Participant is anything sharing the discovery channel. The listener is valid
// only for the duration of the call and must not be retained.
//
// Implementations must be comparable (pointer types in practice), since
// RemoveParticipant matches by identity. A duplicate Start or Stop must be
// rejected with an error wrapping ErrInvalidState.
type Participant interface {
	Start(l *channel.Listener) error
	Stop(l *channel.Listener) error
}

// AdvertisingHost announces one or more devices under a unique identifier.
type AdvertisingHost interface {
	Participant
	Identifier() string
}

// DiscoveryClient searches for devices and can be told to ignore identifiers.
type DiscoveryClient interface {
	Participant
	IgnoreIdentifier(id string)
}

// BootCounter is implemented by hosts whose boot id is advanced every time the
// engine starts them from Start.
type BootCounter interface {
	AdvanceBootID()
}

// Cataloger is implemented by clients that keep the devices they discover.
type Cataloger interface {
	Catalog() []*catalog.Device
}
