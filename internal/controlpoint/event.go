package controlpoint

import "github.com/muurk/ssdpd/internal/catalog"

// EventType identifies a change to the catalog
type EventType int

const (
	EventAdded EventType = iota
	EventUpdated
	EventRemoved
)

// String returns a human-readable string for the event type
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the event type by name
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is one catalog change
type Event struct {
	Type   EventType       `json:"type"`
	Device *catalog.Device `json:"device"`
}
