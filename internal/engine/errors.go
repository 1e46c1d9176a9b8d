package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned for Start while running or Stop while stopped.
	// Participants return it (wrapped) for duplicate Start or Stop calls.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound is returned when removing a participant that is not registered
	ErrNotFound = errors.New("participant not found")

	// ErrUnknownParticipant is returned when a value is neither an
	// AdvertisingHost nor a DiscoveryClient
	ErrUnknownParticipant = errors.New("unknown participant kind")

	// ErrParticipant matches every ParticipantError via errors.Is
	ErrParticipant = errors.New("participant failure")
)

// Kind identifies the participant variant
type Kind int

const (
	// KindHost is an advertising host
	KindHost Kind = iota
	// KindClient is a discovery client
	KindClient
)

// String returns the metric/log label for the kind
func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindClient:
		return "client"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Participant lifecycle operations
const (
	OpStart = "start"
	OpStop  = "stop"
)

// ParticipantError reports a failed participant Start or Stop
type ParticipantError struct {
	Kind       Kind   // Participant variant
	Op         string // OpStart or OpStop
	Identifier string // Host identifier, empty for clients
	Err        error  // Error returned by the participant
}

// Error implements the error interface
func (e *ParticipantError) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Identifier, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParticipantError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrParticipant
func (e *ParticipantError) Is(target error) bool {
	return target == ErrParticipant
}

// IsInvalidState checks if an error is an invalid lifecycle transition
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsParticipantError checks if an error came from a participant
func IsParticipantError(err error) bool {
	return errors.Is(err, ErrParticipant)
}
