package engine

import (
	"fmt"

	"github.com/muurk/ssdpd/internal/catalog"
)

// Inspect returns an introspection view over the devices known to the first
// registered client that keeps a catalog. It fails with catalog.ErrNotFound
// when no such client is registered.
func (e *Engine) Inspect() (*catalog.Inspector, error) {
	e.mu.Lock()
	var source Cataloger
	for _, c := range e.reg.clients {
		if cat, ok := c.(Cataloger); ok {
			source = cat
			break
		}
	}
	e.mu.Unlock()

	if source == nil {
		return nil, fmt.Errorf("no cataloging discovery client: %w", catalog.ErrNotFound)
	}
	return catalog.NewInspector(source.Catalog()), nil
}
