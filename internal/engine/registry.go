package engine

import "slices"

// registry holds participants in insertion order. Duplicates are allowed.
// All access happens under the engine lock.
type registry struct {
	hosts   []AdvertisingHost
	clients []DiscoveryClient
}

func (r *registry) addHost(h AdvertisingHost) {
	r.hosts = append(r.hosts, h)
}

func (r *registry) addClient(c DiscoveryClient) {
	r.clients = append(r.clients, c)
}

// find reports the kind under which p is registered
func (r *registry) find(p Participant) (Kind, bool) {
	if slices.IndexFunc(r.hosts, func(h AdvertisingHost) bool { return Participant(h) == p }) >= 0 {
		return KindHost, true
	}
	if slices.IndexFunc(r.clients, func(c DiscoveryClient) bool { return Participant(c) == p }) >= 0 {
		return KindClient, true
	}
	return 0, false
}

// remove drops the first occurrence of p from the collection of the given kind
func (r *registry) remove(kind Kind, p Participant) {
	switch kind {
	case KindHost:
		if i := slices.IndexFunc(r.hosts, func(h AdvertisingHost) bool { return Participant(h) == p }); i >= 0 {
			r.hosts = slices.Delete(r.hosts, i, i+1)
		}
	case KindClient:
		if i := slices.IndexFunc(r.clients, func(c DiscoveryClient) bool { return Participant(c) == p }); i >= 0 {
			r.clients = slices.Delete(r.clients, i, i+1)
		}
	}
}

func (r *registry) hostIdentifiers() []string {
	ids := make([]string, 0, len(r.hosts))
	for _, h := range r.hosts {
		ids = append(ids, h.Identifier())
	}
	return ids
}

func (r *registry) clear() {
	r.hosts = nil
	r.clients = nil
}
