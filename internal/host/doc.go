// Package host implements an SSDP advertising host for one UPnP root device.
//
// A Host serves its device description at /description.xml and one service
// description per service at /scpd/<n>.xml. While started it:
//
//   - announces ssdp:alive for upnp:rootdevice, its UDN, its device type and
//     each service type, and repeats the burst every max-age/2;
//   - answers M-SEARCH requests received on the engine's shared channel with
//     unicast responses carrying BOOTID.UPNP.ORG;
//   - optionally mirrors itself over mDNS.
//
// Stop sends ssdp:byebye for the same targets. The boot id is advanced by the
// engine every time it starts a new running epoch.
package host
