package catalog

import (
	"errors"
	"testing"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/scpd"
)

func switchPowerSCPD() *scpd.SCPD {
	return &scpd.SCPD{
		Actions: []scpd.Action{
			{
				Name: "SetTarget",
				Arguments: []scpd.Argument{
					{Name: "newTargetValue", Direction: "in", RelatedStateVariable: "Target"},
				},
			},
			{
				Name: "GetStatus",
				Arguments: []scpd.Argument{
					{Name: "ResultStatus", Direction: "out", RelatedStateVariable: "Status"},
					{Name: "Orphan", Direction: "out", RelatedStateVariable: "Missing"},
				},
			},
		},
		StateVariables: []scpd.StateVariable{
			{Name: "Target", DataType: scpd.DataType{Name: "boolean"}},
			{Name: "Status", DataType: scpd.DataType{Name: "boolean"}},
		},
	}
}

func testInspector() *Inspector {
	root := &goupnp.RootDevice{
		Device: goupnp.Device{
			DeviceType:   "urn:schemas-upnp-org:device:BinaryLight:1",
			FriendlyName: "Kitchen Light",
			UDN:          "uuid:1111",
			Services: []goupnp.Service{
				{ServiceType: "urn:schemas-upnp-org:service:SwitchPower:1", ServiceId: "urn:upnp-org:serviceId:SwitchPower"},
				{ServiceType: "urn:schemas-upnp-org:service:Dimming:1", ServiceId: "urn:upnp-org:serviceId:Dimming"},
			},
		},
	}
	light := FromRoot(root, "http://192.168.1.20:8080/description.xml", map[string]*scpd.SCPD{
		"urn:schemas-upnp-org:service:SwitchPower:1": switchPowerSCPD(),
	})
	bare := &Device{Identifier: "uuid:2222", FriendlyName: "Bare", DeviceType: "urn:schemas-upnp-org:device:Basic:1"}
	return NewInspector([]*Device{light, bare})
}

func TestInspector_DeviceQueries(t *testing.T) {
	in := testInspector()

	if in.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", in.Count())
	}

	tests := []struct {
		name    string
		query   func() (string, error)
		want    string
		wantErr bool
	}{
		{"friendly name", func() (string, error) { return in.FriendlyName(0) }, "Kitchen Light", false},
		{"identifier", func() (string, error) { return in.Identifier(1) }, "uuid:2222", false},
		{"device type", func() (string, error) { return in.DeviceType(0) }, "urn:schemas-upnp-org:device:BinaryLight:1", false},
		{"negative index", func() (string, error) { return in.FriendlyName(-1) }, "", true},
		{"index past end", func() (string, error) { return in.Identifier(2) }, "", true},
		{"device type past end", func() (string, error) { return in.DeviceType(7) }, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query()
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInspector_ByIdentifier(t *testing.T) {
	in := testInspector()

	tests := []struct {
		id       string
		wantName string
		wantErr  bool
	}{
		{"uuid:1111", "Kitchen Light", false},
		{"1111", "Kitchen Light", false},
		{"UUID:2222", "Bare", false},
		{"uuid:3333", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, err := in.ByIdentifier(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("ByIdentifier(%q) error = %v, want ErrNotFound", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ByIdentifier(%q) unexpected error: %v", tt.id, err)
			}
			if d.FriendlyName != tt.wantName {
				t.Errorf("ByIdentifier(%q) = %q, want %q", tt.id, d.FriendlyName, tt.wantName)
			}
		})
	}
}

func TestInspector_Action(t *testing.T) {
	in := testInspector()

	action, err := in.Action(0, "SwitchPower")
	if err != nil {
		t.Fatalf("Action() unexpected error: %v", err)
	}
	if action.Name != "SetTarget" {
		t.Errorf("Action() = %q, want first action SetTarget", action.Name)
	}

	misses := []struct {
		name        string
		index       int
		serviceType string
	}{
		{"no such service", 0, "AVTransport"},
		{"service without description", 0, "Dimming"},
		{"device without services", 1, "SwitchPower"},
		{"bad index", 5, "SwitchPower"},
	}
	for _, tt := range misses {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := in.Action(tt.index, tt.serviceType); !errors.Is(err, ErrNotFound) {
				t.Errorf("Action(%d, %q) error = %v, want ErrNotFound", tt.index, tt.serviceType, err)
			}
		})
	}
}

func TestInspector_ActionSkipsEmptyServices(t *testing.T) {
	root := &goupnp.RootDevice{
		Device: goupnp.Device{
			DeviceType: "urn:schemas-upnp-org:device:MediaRenderer:1",
			UDN:        "uuid:3333",
			Services: []goupnp.Service{
				{ServiceType: "urn:schemas-upnp-org:service:AVTransport:1"},
				{ServiceType: "urn:schemas-upnp-org:service:AVTransport:2"},
			},
		},
	}
	renderer := FromRoot(root, "http://192.168.1.30:1400/description.xml", map[string]*scpd.SCPD{
		"urn:schemas-upnp-org:service:AVTransport:1": {},
		"urn:schemas-upnp-org:service:AVTransport:2": {Actions: []scpd.Action{{Name: "Play"}}},
	})
	in := NewInspector([]*Device{renderer})

	action, err := in.Action(0, "AVTransport")
	if err != nil {
		t.Fatalf("Action() unexpected error: %v", err)
	}
	if action.Name != "Play" {
		t.Errorf("Action() = %q, want Play", action.Name)
	}
}

func TestInspector_ArgumentAndDataType(t *testing.T) {
	in := testInspector()

	tests := []struct {
		name         string
		action       string
		arg          string
		wantDir      string
		wantDataType string
		wantArgErr   bool
		wantTypeErr  bool
	}{
		{name: "input argument", action: "SetTarget", arg: "newTargetValue", wantDir: "in", wantDataType: "boolean"},
		{name: "action by substring", action: "Status", arg: "ResultStatus", wantDir: "out", wantDataType: "boolean"},
		{name: "argument name is exact", action: "Status", arg: "Result", wantArgErr: true, wantTypeErr: true},
		{name: "unknown action", action: "Toggle", arg: "x", wantArgErr: true, wantTypeErr: true},
		{name: "missing state variable", action: "GetStatus", arg: "Orphan", wantDir: "out", wantTypeErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arg, err := in.Argument(0, "SwitchPower", tt.action, tt.arg)
			if tt.wantArgErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Argument() error = %v, want ErrNotFound", err)
				}
			} else {
				if err != nil {
					t.Fatalf("Argument() unexpected error: %v", err)
				}
				if arg.Direction != tt.wantDir {
					t.Errorf("Argument().Direction = %q, want %q", arg.Direction, tt.wantDir)
				}
			}

			dt, err := in.ArgumentDataType(0, "SwitchPower", tt.action, tt.arg)
			if tt.wantTypeErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("ArgumentDataType() error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ArgumentDataType() unexpected error: %v", err)
			}
			if dt != tt.wantDataType {
				t.Errorf("ArgumentDataType() = %q, want %q", dt, tt.wantDataType)
			}
		})
	}
}
