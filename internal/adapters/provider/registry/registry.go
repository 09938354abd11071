// Package registry maps provider tags to adapter instances. The tag set is
// closed, so lookups only fail on a wiring bug.
package registry

import (
	"fmt"

	"lingochat/internal/domain"
	"lingochat/internal/ports"
)

type Registry struct {
	providers map[domain.ProviderTag]ports.Provider
}

func New() *Registry {
	return &Registry{providers: make(map[domain.ProviderTag]ports.Provider)}
}

func (r *Registry) Register(p ports.Provider) {
	r.providers[p.Tag()] = p
}

func (r *Registry) Get(tag domain.ProviderTag) (ports.Provider, bool) {
	p, ok := r.providers[tag]
	return p, ok
}

func (r *Registry) MustGet(tag domain.ProviderTag) ports.Provider {
	p, ok := r.providers[tag]
	if !ok {
		panic(fmt.Sprintf("provider not registered: %s", tag))
	}
	return p
}
