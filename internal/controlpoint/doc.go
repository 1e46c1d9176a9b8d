// Package controlpoint implements an SSDP discovery client.
//
// A Client shares the engine's multicast channel: NOTIFY messages are fed into
// a goupnp ssdp.Registry and its updates drive the catalog. M-SEARCH rounds go
// out from an ephemeral socket. Every discovered root device has its
// description fetched (cached by location) and its service descriptions
// fetched concurrently before it is added to the catalog.
//
// Identifiers passed to IgnoreIdentifier, typically the UDNs of hosts running
// in the same engine, are never catalogued.
package controlpoint
