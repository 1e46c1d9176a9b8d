package controlpoint

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/httpu"
	"github.com/huin/goupnp/scpd"
	"github.com/huin/goupnp/ssdp"
)

// Describer fetches device and service descriptions
type Describer interface {
	Describe(ctx context.Context, loc *url.URL) (*goupnp.RootDevice, error)
	ServiceDescription(ctx context.Context, srv *goupnp.Service) (*scpd.SCPD, error)
}

// Searcher performs one M-SEARCH round and returns the unicast responses
type Searcher interface {
	Search(ctx context.Context, target string, mx, numSends int) ([]*http.Response, error)
}

// HTTPDescriber fetches descriptions over HTTP with goupnp
type HTTPDescriber struct{}

// Describe fetches the root description at loc
func (HTTPDescriber) Describe(ctx context.Context, loc *url.URL) (*goupnp.RootDevice, error) {
	root, err := goupnp.DeviceByURLCtx(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch description %s: %w", loc, err)
	}
	return root, nil
}

// ServiceDescription fetches the SCPD of srv
func (HTTPDescriber) ServiceDescription(ctx context.Context, srv *goupnp.Service) (*scpd.SCPD, error) {
	doc, err := srv.RequestSCPDCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch SCPD for %s: %w", srv.ServiceType, err)
	}
	return doc, nil
}

// MulticastSearcher sends M-SEARCH from an ephemeral socket with goupnp's
// HTTPU client. Responses are filtered to the requested target.
type MulticastSearcher struct{}

// Search sends target numSends times and collects responses for mx seconds
func (MulticastSearcher) Search(ctx context.Context, target string, mx, numSends int) ([]*http.Response, error) {
	client, err := httpu.NewHTTPUClient()
	if err != nil {
		return nil, fmt.Errorf("failed to open search socket: %w", err)
	}
	defer client.Close()

	responses, err := ssdp.SSDPRawSearchCtx(ctx, client, target, mx, numSends)
	if err != nil {
		return nil, fmt.Errorf("M-SEARCH %s failed: %w", target, err)
	}
	return responses, nil
}
