// File: internal/page/registry.go
// Package page implements the page-object layer: named pages mapping
// logical element names to locators, resolved against a live browser
// session. Tests and scenarios talk in page/element names instead of raw
// selectors, so a selector change touches one map entry.
package page

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewright/api/schemas"
)

// Registry holds the known page maps by name. Registration is explicit;
// there is no scanning or reflection. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	pages  map[string]schemas.PageMap
	logger *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		pages:  make(map[string]schemas.PageMap),
		logger: logger.Named("pages"),
	}
}

// Register validates and stores a page map. Re-registering a name is an
// error; page names are stable identifiers, not mutable state.
func (r *Registry) Register(pm schemas.PageMap) error {
	if err := pm.Validate(); err != nil {
		return fmt.Errorf("invalid page map: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pages[pm.Name]; exists {
		return fmt.Errorf("page %q is already registered", pm.Name)
	}
	r.pages[pm.Name] = pm
	r.logger.Debug("Registered page map.",
		zap.String("page", pm.Name), zap.Int("elements", len(pm.Elements)))
	return nil
}

// RegisterAll registers every page map, stopping at the first failure.
func (r *Registry) RegisterAll(pms []schemas.PageMap) error {
	for _, pm := range pms {
		if err := r.Register(pm); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered page names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pages))
	for n := range r.pages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve binds a registered page map to a driver, yielding a Page whose
// element operations run against that session.
func (r *Registry) Resolve(name string, driver Driver) (*Page, error) {
	r.mu.RLock()
	pm, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("page %q is not registered", name)
	}
	return &Page{pm: pm, driver: driver, logger: r.logger.Named(name)}, nil
}
