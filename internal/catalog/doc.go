// Package catalog models devices found by discovery clients and answers
// read-only introspection queries over them.
//
// A Device is built from a fetched UPnP root description plus the service
// descriptions (SCPD) of its services. The Inspector addresses devices by index
// in discovery order, or by identifier, and resolves nested descriptors:
//
//	in := catalog.NewInspector(devices)
//	name, err := in.FriendlyName(0)
//	action, err := in.Action(0, "SwitchPower")
//	dt, err := in.ArgumentDataType(0, "SwitchPower", "SetTarget", "newTargetValue")
//
// Service types and action names match by substring, argument names exactly.
// A query that matches nothing returns ErrNotFound, never a zero value.
package catalog
