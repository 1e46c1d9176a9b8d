// Package channel owns the shared SSDP multicast channel.
//
// Only one socket on a host can conveniently listen on UDP port 1900, so every
// advertising host and discovery client in a process shares one:
//
//   - Open binds 0.0.0.0:1900 with address reuse and joins 239.255.255.250 on
//     every multicast-capable interface. A failed join releases the socket.
//   - A Listener serves the socket with goupnp's httpu server and fans each
//     parsed request out to subscribed Handlers. Handlers reply unicast through
//     the same socket.
//   - An Executor runs the Listener and aborts it (closing the socket) as a unit.
//
// A Channel, its Listener and their Executor live for one running epoch of the
// engine and are recreated on every start.
package channel
