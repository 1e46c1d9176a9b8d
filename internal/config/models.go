package config

import (
	"time"

	"github.com/huin/goupnp/scpd"
)

// CurrentVersion is the only configuration file version understood
const CurrentVersion = 1

// Config represents the entire configuration file.
type Config struct {
	Version  int            `yaml:"version" ignored:"true"`
	LogLevel string         `yaml:"log_level,omitempty" split_words:"true"`
	Engine   EngineConfig   `yaml:"engine" split_words:"true"`
	Client   ClientConfig   `yaml:"client" split_words:"true"`
	Server   ServerConfig   `yaml:"server" split_words:"true"`
	Devices  []DeviceConfig `yaml:"devices,omitempty" ignored:"true"`
}

// EngineConfig controls the shared discovery channel.
type EngineConfig struct {
	SuppressSelfDiscovery bool     `yaml:"suppress_self_discovery" split_words:"true"`
	StartRollback         bool     `yaml:"start_rollback" split_words:"true"`
	Interfaces            []string `yaml:"interfaces,omitempty" split_words:"true"` // Restrict multicast joins to these interface names
}

// ClientConfig controls the discovery client run by `ssdpd serve`.
type ClientConfig struct {
	Enabled        bool          `yaml:"enabled" split_words:"true"`
	SearchTarget   string        `yaml:"search_target" split_words:"true"`
	SearchInterval time.Duration `yaml:"search_interval" split_words:"true"` // Zero searches once at start
	MX             int           `yaml:"mx" split_words:"true"`              // Response window in seconds
}

// ServerConfig controls the status server (feed, metrics, health).
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Addr    string `yaml:"addr" split_words:"true"`
	TLSCert string `yaml:"tls_cert,omitempty" split_words:"true"`
	TLSKey  string `yaml:"tls_key,omitempty" split_words:"true"`
}

// DeviceConfig describes one root device advertised by `ssdpd serve`.
type DeviceConfig struct {
	FriendlyName string          `yaml:"friendly_name"`
	DeviceType   string          `yaml:"device_type"`
	UUID         string          `yaml:"uuid,omitempty"` // Generated on first save when empty
	Manufacturer string          `yaml:"manufacturer,omitempty"`
	ModelName    string          `yaml:"model_name,omitempty"`
	HTTPAddr     string          `yaml:"http_addr,omitempty"`
	AdvertiseIP  string          `yaml:"advertise_ip,omitempty"`
	MaxAge       time.Duration   `yaml:"max_age,omitempty"`
	MDNS         bool            `yaml:"mdns,omitempty"` // Mirror the device over mDNS
	Services     []ServiceConfig `yaml:"services,omitempty"`
}

// ServiceConfig describes one service of an advertised device.
type ServiceConfig struct {
	Type           string                `yaml:"type"`
	ID             string                `yaml:"id,omitempty"`
	Actions        []ActionConfig        `yaml:"actions,omitempty"`
	StateVariables []StateVariableConfig `yaml:"state_variables,omitempty"`
}

// ActionConfig is one action of a service.
type ActionConfig struct {
	Name      string           `yaml:"name"`
	Arguments []ArgumentConfig `yaml:"arguments,omitempty"`
}

// ArgumentConfig is one argument of an action.
type ArgumentConfig struct {
	Name                 string `yaml:"name"`
	Direction            string `yaml:"direction"` // in|out
	RelatedStateVariable string `yaml:"related_state_variable"`
}

// StateVariableConfig is one state variable of a service.
type StateVariableConfig struct {
	Name          string   `yaml:"name"`
	DataType      string   `yaml:"data_type"`
	SendEvents    bool     `yaml:"send_events,omitempty"`
	DefaultValue  string   `yaml:"default_value,omitempty"`
	AllowedValues []string `yaml:"allowed_values,omitempty"`
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		LogLevel: "info",
		Engine: EngineConfig{
			SuppressSelfDiscovery: true,
		},
		Client: ClientConfig{
			Enabled:        true,
			SearchTarget:   "ssdp:all",
			SearchInterval: 5 * time.Minute,
			MX:             2,
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:1901",
		},
	}
}

// SCPD renders the service description.
func (s ServiceConfig) SCPD() *scpd.SCPD {
	doc := &scpd.SCPD{}
	for _, a := range s.Actions {
		action := scpd.Action{Name: a.Name}
		for _, arg := range a.Arguments {
			action.Arguments = append(action.Arguments, scpd.Argument{
				Name:                 arg.Name,
				Direction:            arg.Direction,
				RelatedStateVariable: arg.RelatedStateVariable,
			})
		}
		doc.Actions = append(doc.Actions, action)
	}
	for _, v := range s.StateVariables {
		events := "no"
		if v.SendEvents {
			events = "yes"
		}
		doc.StateVariables = append(doc.StateVariables, scpd.StateVariable{
			Name:          v.Name,
			SendEvents:    events,
			DataType:      scpd.DataType{Name: v.DataType},
			DefaultValue:  v.DefaultValue,
			AllowedValues: v.AllowedValues,
		})
	}
	return doc
}

// ExampleDevice is the device written by CreateDefaultConfig: a virtual
// binary light with one SwitchPower service.
func ExampleDevice() DeviceConfig {
	return DeviceConfig{
		FriendlyName: "ssdpd Virtual Light",
		DeviceType:   "urn:schemas-upnp-org:device:BinaryLight:1",
		Manufacturer: "ssdpd",
		ModelName:    "virtual-light",
		MaxAge:       30 * time.Minute,
		Services: []ServiceConfig{
			{
				Type: "urn:schemas-upnp-org:service:SwitchPower:1",
				Actions: []ActionConfig{
					{Name: "SetTarget", Arguments: []ArgumentConfig{
						{Name: "newTargetValue", Direction: "in", RelatedStateVariable: "Target"},
					}},
					{Name: "GetTarget", Arguments: []ArgumentConfig{
						{Name: "RetTargetValue", Direction: "out", RelatedStateVariable: "Target"},
					}},
					{Name: "GetStatus", Arguments: []ArgumentConfig{
						{Name: "ResultStatus", Direction: "out", RelatedStateVariable: "Status"},
					}},
				},
				StateVariables: []StateVariableConfig{
					{Name: "Target", DataType: "boolean", DefaultValue: "0"},
					{Name: "Status", DataType: "boolean", SendEvents: true, DefaultValue: "0"},
				},
			},
		},
	}
}
