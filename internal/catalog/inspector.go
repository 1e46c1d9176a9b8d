package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huin/goupnp/scpd"
)

// ErrNotFound is returned by every Inspector query that matches nothing
var ErrNotFound = errors.New("not found")

// Inspector answers read-only queries over a snapshot of discovered devices.
// Devices are addressed by their zero-based index in discovery order.
type Inspector struct {
	devices []*Device
}

// NewInspector wraps a device snapshot. The slice is not copied.
func NewInspector(devices []*Device) *Inspector {
	return &Inspector{devices: devices}
}

// Count returns the number of devices in the snapshot
func (in *Inspector) Count() int {
	return len(in.devices)
}

// Devices returns the snapshot
func (in *Inspector) Devices() []*Device {
	return in.devices
}

// At returns the device at index i
func (in *Inspector) At(i int) (*Device, error) {
	if i < 0 || i >= len(in.devices) {
		return nil, fmt.Errorf("device %d: %w", i, ErrNotFound)
	}
	return in.devices[i], nil
}

// ByIdentifier returns the first device whose identifier matches id, with or
// without its "uuid:" prefix.
func (in *Inspector) ByIdentifier(id string) (*Device, error) {
	want := CanonicalIdentifier(id)
	if want != "" {
		for _, d := range in.devices {
			if d.Identifier == want {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("device %q: %w", id, ErrNotFound)
}

// FriendlyName returns the friendly name of the device at index i
func (in *Inspector) FriendlyName(i int) (string, error) {
	d, err := in.At(i)
	if err != nil {
		return "", err
	}
	return d.FriendlyName, nil
}

// Identifier returns the UDN of the device at index i
func (in *Inspector) Identifier(i int) (string, error) {
	d, err := in.At(i)
	if err != nil {
		return "", err
	}
	return d.Identifier, nil
}

// DeviceType returns the device type URN of the device at index i
func (in *Inspector) DeviceType(i int) (string, error) {
	d, err := in.At(i)
	if err != nil {
		return "", err
	}
	return d.DeviceType, nil
}

// Action returns the first action of the first service of device i whose type
// contains serviceType.
func (in *Inspector) Action(i int, serviceType string) (*scpd.Action, error) {
	_, action, err := in.findAction(i, serviceType, "")
	return action, err
}

// Argument returns argument argName of the first action whose name contains
// actionName, in the first service of device i whose type contains serviceType.
func (in *Inspector) Argument(i int, serviceType, actionName, argName string) (*scpd.Argument, error) {
	_, arg, err := in.findArgument(i, serviceType, actionName, argName)
	return arg, err
}

// ArgumentDataType returns the data type of the state variable related to the
// argument selected as in Argument.
func (in *Inspector) ArgumentDataType(i int, serviceType, actionName, argName string) (string, error) {
	srv, arg, err := in.findArgument(i, serviceType, actionName, argName)
	if err != nil {
		return "", err
	}
	sv := srv.SCPD.GetStateVariable(arg.RelatedStateVariable)
	if sv == nil || sv.DataType.Name == "" {
		return "", fmt.Errorf("state variable %q: %w", arg.RelatedStateVariable, ErrNotFound)
	}
	return sv.DataType.Name, nil
}

// findAction walks the services of device i whose type contains serviceType
// and returns the first action whose name contains actionName. Matching
// services without a description or a suitable action are skipped.
func (in *Inspector) findAction(i int, serviceType, actionName string) (*Service, *scpd.Action, error) {
	d, err := in.At(i)
	if err != nil {
		return nil, nil, err
	}
	for si := range d.Services {
		srv := &d.Services[si]
		if !strings.Contains(srv.Type, serviceType) || srv.SCPD == nil {
			continue
		}
		for ai := range srv.SCPD.Actions {
			action := &srv.SCPD.Actions[ai]
			if strings.Contains(action.Name, actionName) {
				return srv, action, nil
			}
		}
	}
	if actionName == "" {
		return nil, nil, fmt.Errorf("action in service %q: %w", serviceType, ErrNotFound)
	}
	return nil, nil, fmt.Errorf("action %q in service %q: %w", actionName, serviceType, ErrNotFound)
}

func (in *Inspector) findArgument(i int, serviceType, actionName, argName string) (*Service, *scpd.Argument, error) {
	srv, action, err := in.findAction(i, serviceType, actionName)
	if err != nil {
		return nil, nil, err
	}
	for ai := range action.Arguments {
		if action.Arguments[ai].Name == argName {
			return srv, &action.Arguments[ai], nil
		}
	}
	return nil, nil, fmt.Errorf("argument %q of %s: %w", argName, action.Name, ErrNotFound)
}
