// Package engine coordinates the participants sharing one SSDP channel.
//
// An Engine owns, for each running epoch, the multicast channel bound to port
// 1900, the listener task serving it and the executor running that task. All
// three are created by Start and released by Stop.
//
// Participants come in two kinds:
//
//   - AdvertisingHost: announces devices and answers searches. It has an
//     identifier (the device UDN).
//   - DiscoveryClient: searches for devices and tracks announcements. It can
//     be told to ignore identifiers.
//
// With suppress-self-discovery enabled (the default), identifiers propagate
// once, when a participant is registered: a new host is ignored by every
// registered client, and a new client ignores every registered host. Nothing
// is re-propagated later, so SetSuppressSelfDiscovery must be called before
// participants are added.
//
// Lifecycle:
//
//	e := engine.New()
//	_ = e.AddParticipant(host)
//	_ = e.AddParticipant(client)
//	if err := e.Start(); err != nil { ... }
//	defer e.Close()
//
// A failed Start never leaves the engine running and always releases the
// channel. Participants started before the failing one are left running
// unless WithStartRollback is set. Stop never fails because of a participant;
// failures are logged and counted.
package engine
