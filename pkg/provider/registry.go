package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

// Registry resolves provider identifiers to fetchers. Identifiers are case-insensitive.
type Registry struct {
	fetchers map[string]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register makes f available under its provider ID and the given aliases. A later registration of the same name wins.
func (r *Registry) Register(f Fetcher, aliases ...string) {
	r.fetchers[registryKey(f.ID().String())] = f

	for _, alias := range aliases {
		r.fetchers[registryKey(alias)] = f
	}
}

// Lookup returns the fetcher registered under name.
func (r *Registry) Lookup(name string) (Fetcher, error) {
	f, ok := r.fetchers[registryKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}

	return f, nil
}

// Providers returns the registered providers in alphabetical order.
func (r *Registry) Providers() []instance.Provider {
	seen := make(map[instance.Provider]struct{})

	var providers []instance.Provider

	for _, f := range r.fetchers {
		if _, ok := seen[f.ID()]; ok {
			continue
		}

		seen[f.ID()] = struct{}{}
		providers = append(providers, f.ID())
	}

	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })

	return providers
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
