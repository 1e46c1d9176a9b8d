package host

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/scpd"
)

const (
	// DescriptionPath is where the root device description is served
	DescriptionPath = "/description.xml"

	scpdPathFormat    = "/scpd/%d.xml"
	controlPathFormat = "/control/%d"
	eventPathFormat   = "/event/%d"
)

// ServiceConfig describes one service of an advertised device
type ServiceConfig struct {
	// Type is the service type URN (e.g., "urn:schemas-upnp-org:service:SwitchPower:1")
	Type string

	// ID is the service id URN. Derived from Type when empty.
	ID string

	// SCPD is the service description. An empty one is served when nil.
	SCPD *scpd.SCPD
}

// buildRoot assembles the root description for a device
func buildRoot(cfg Config, udn string) *goupnp.RootDevice {
	root := &goupnp.RootDevice{
		SpecVersion: goupnp.SpecVersion{Major: 1, Minor: 1},
		Device: goupnp.Device{
			DeviceType:   cfg.DeviceType,
			FriendlyName: cfg.FriendlyName,
			Manufacturer: cfg.Manufacturer,
			ModelName:    cfg.ModelName,
			UDN:          udn,
		},
	}
	for i, s := range cfg.Services {
		root.Device.Services = append(root.Device.Services, goupnp.Service{
			ServiceType: s.Type,
			ServiceId:   serviceID(s),
			SCPDURL:     goupnp.URLField{Str: fmt.Sprintf(scpdPathFormat, i)},
			ControlURL:  goupnp.URLField{Str: fmt.Sprintf(controlPathFormat, i)},
			EventSubURL: goupnp.URLField{Str: fmt.Sprintf(eventPathFormat, i)},
		})
	}
	return root
}

// serviceID derives "urn:upnp-org:serviceId:<Name>" from a service type
// "urn:<domain>:service:<Name>:<version>" when no id is configured.
func serviceID(s ServiceConfig) string {
	if s.ID != "" {
		return s.ID
	}
	parts := strings.Split(s.Type, ":")
	if len(parts) == 5 && parts[0] == "urn" && parts[2] == "service" {
		return "urn:upnp-org:serviceId:" + parts[3]
	}
	return "urn:upnp-org:serviceId:" + s.Type
}

func marshalRoot(root *goupnp.RootDevice) ([]byte, error) {
	body, err := encodeDocument(root, "root", goupnp.DeviceXMLNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to encode device description: %w", err)
	}
	return body, nil
}

func marshalSCPD(doc *scpd.SCPD) ([]byte, error) {
	out := scpd.SCPD{}
	if doc != nil {
		out = *doc
	}
	if out.SpecVersion.Major == 0 {
		out.SpecVersion = scpd.SpecVersion{Major: 1, Minor: 0}
	}
	body, err := encodeDocument(&out, "scpd", scpd.SCPDXMLNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service description: %w", err)
	}
	return body, nil
}

// encodeDocument writes v as the document element local in namespace ns.
// The goupnp types name their root element without a namespace.
func encodeDocument(v any, local, ns string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	start := xml.StartElement{
		Name: xml.Name{Local: local},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: ns}},
	}
	if err := enc.EncodeElement(v, start); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
