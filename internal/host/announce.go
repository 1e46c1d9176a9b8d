package host

import (
	"sync"

	"github.com/koron/go-ssdp"
	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/logging"
)

// Announcer sends NOTIFY messages to the SSDP multicast group.
type Announcer interface {
	Alive(nt, usn string, location ssdp.LocationProvider, server string, maxAge int) error
	Bye(nt, usn string) error
}

// MulticastAnnouncer sends NOTIFY messages with github.com/koron/go-ssdp on a
// short-lived socket per message.
type MulticastAnnouncer struct {
	// LocalAddr restricts the sending interface. Empty means all interfaces.
	LocalAddr string
}

var routeSSDPLogs sync.Once

// NewMulticastAnnouncer creates the default announcer
func NewMulticastAnnouncer(localAddr string) *MulticastAnnouncer {
	routeSSDPLogs.Do(func() {
		ssdp.Logger = zap.NewStdLog(logging.GetLogger().Named("go-ssdp"))
	})
	return &MulticastAnnouncer{LocalAddr: localAddr}
}

// Alive sends ssdp:alive
func (a *MulticastAnnouncer) Alive(nt, usn string, location ssdp.LocationProvider, server string, maxAge int) error {
	return ssdp.AnnounceAlive(nt, usn, location, server, maxAge, a.LocalAddr)
}

// Bye sends ssdp:byebye
func (a *MulticastAnnouncer) Bye(nt, usn string) error {
	return ssdp.AnnounceBye(nt, usn, a.LocalAddr)
}
