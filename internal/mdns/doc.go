// Package mdns mirrors hosted UPnP devices over multicast DNS.
//
// Some networks filter SSDP multicast but pass mDNS. A Mirror publishes a
// hosted device under the "_ssdpd._tcp" service type with TXT records carrying
// its UDN, device type and description path; a Scanner browses for those
// records and returns the description location of every mirrored device.
//
// # Usage Example
//
//	scanner := mdns.NewScanner()
//	devices, err := scanner.ScanForDevices(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, device := range devices {
//	    fmt.Printf("Found: %s at %s\n", device.Instance, device.Location())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Firewall must allow mDNS (UDP port 5353)
package mdns
