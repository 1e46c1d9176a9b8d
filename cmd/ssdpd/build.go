package main

import (
	"github.com/muurk/ssdpd/internal/channel"
	"github.com/muurk/ssdpd/internal/config"
	"github.com/muurk/ssdpd/internal/controlpoint"
	"github.com/muurk/ssdpd/internal/engine"
	"github.com/muurk/ssdpd/internal/host"
	"github.com/muurk/ssdpd/internal/mdns"
)

// newEngine builds an engine from the engine section of the configuration
func newEngine(c config.EngineConfig) *engine.Engine {
	return engine.New(
		engine.WithChannelConfig(channel.Config{InterfaceNames: c.Interfaces}),
		engine.WithStartRollback(c.StartRollback),
		engine.WithSuppressSelfDiscovery(c.SuppressSelfDiscovery),
	)
}

// clientConfig maps the client section onto a discovery client config.
// Periodic searching is left to the caller when search is false.
func clientConfig(c config.ClientConfig, search bool) controlpoint.Config {
	return controlpoint.Config{
		SearchTarget:   c.SearchTarget,
		SearchInterval: c.SearchInterval,
		MX:             c.MX,
		DisableSearch:  !search,
	}
}

// hostConfig maps one configured device onto a host config
func hostConfig(d config.DeviceConfig) host.Config {
	services := make([]host.ServiceConfig, 0, len(d.Services))
	for _, s := range d.Services {
		services = append(services, host.ServiceConfig{
			Type: s.Type,
			ID:   s.ID,
			SCPD: s.SCPD(),
		})
	}
	return host.Config{
		FriendlyName: d.FriendlyName,
		DeviceType:   d.DeviceType,
		UUID:         d.UUID,
		Manufacturer: d.Manufacturer,
		ModelName:    d.ModelName,
		HTTPAddr:     d.HTTPAddr,
		AdvertiseIP:  d.AdvertiseIP,
		MaxAge:       d.MaxAge,
		Services:     services,
	}
}

// newHost builds an advertising host, mirrored over mDNS when configured
func newHost(d config.DeviceConfig) (*host.Host, error) {
	var opts []host.Option
	if d.MDNS {
		opts = append(opts, host.WithMirror(mdns.NewMirror(nil)))
	}
	return host.New(hostConfig(d), opts...)
}

// discoverySession is an engine running a single discovery client
type discoverySession struct {
	engine *engine.Engine
	client *controlpoint.Client
}

// startDiscovery starts an engine with one discovery client. The client does
// not search on its own; callers drive Search.
func startDiscovery(c *config.Config, target string, mx int) (*discoverySession, error) {
	cc := clientConfig(c.Client, false)
	if target != "" {
		cc.SearchTarget = target
	}
	if mx > 0 {
		cc.MX = mx
	}

	client, err := controlpoint.New(cc)
	if err != nil {
		return nil, err
	}

	e := newEngine(c.Engine)
	if err := e.AddParticipant(client); err != nil {
		return nil, err
	}
	if err := e.Start(); err != nil {
		return nil, err
	}
	return &discoverySession{engine: e, client: client}, nil
}

// Close stops the engine and releases the channel
func (s *discoverySession) Close() error {
	return s.engine.Close()
}
