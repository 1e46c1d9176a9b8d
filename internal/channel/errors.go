package channel

import (
	"errors"
	"fmt"
)

// ErrResource matches every ResourceError via errors.Is
var ErrResource = errors.New("discovery channel resource failure")

// ErrExecutorAborted is returned when submitting to an aborted Executor
var ErrExecutorAborted = errors.New("executor aborted")

// Resource operations that can fail while acquiring the channel
const (
	OpEnumerate = "enumerate"
	OpBind      = "bind"
	OpJoin      = "join"
)

// ResourceError reports a failure acquiring the shared channel. It is fatal to
// Engine.Start; the partially acquired socket has already been released.
type ResourceError struct {
	Op        string // OpEnumerate, OpBind or OpJoin
	Interface string // interface name for OpJoin
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.Interface != "" {
		return fmt.Sprintf("discovery channel %s on %s: %v", e.Op, e.Interface, e.Err)
	}
	return fmt.Sprintf("discovery channel %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrResource
func (e *ResourceError) Is(target error) bool {
	return target == ErrResource
}

// IsBindError checks if an error is a failure to bind the discovery port,
// typically because another process holds it without address reuse.
func IsBindError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re) && re.Op == OpBind
}

// IsJoinError checks if an error is a multicast group join failure
func IsJoinError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re) && re.Op == OpJoin
}
