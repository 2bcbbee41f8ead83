package stubs

import (
	"context"
	"sync"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

// Source is a canned provider. Prices and price errors are keyed by instance type.
type Source struct {
	Provider   instance.Provider
	Catalog    []instance.Raw
	CatalogErr error
	Prices     map[string]instance.Quotes
	PriceErrs  map[string]error
	// PanicOn makes FetchPrice panic for the given instance type.
	PanicOn string

	mu         sync.Mutex
	priceCalls []string
}

func NewSource(provider instance.Provider, catalog []instance.Raw, catalogErr error) *Source {
	return &Source{
		Provider:   provider,
		Catalog:    catalog,
		CatalogErr: catalogErr,
		Prices:     map[string]instance.Quotes{},
		PriceErrs:  map[string]error{},
	}
}

func (s *Source) ID() instance.Provider {
	return s.Provider
}

func (s *Source) FetchCatalog(ctx context.Context, region string) ([]instance.Raw, error) {
	return s.Catalog, s.CatalogErr
}

func (s *Source) FetchPrice(ctx context.Context, raw instance.Raw, region string) (instance.Quotes, error) {
	s.mu.Lock()
	s.priceCalls = append(s.priceCalls, raw.InstanceType)
	s.mu.Unlock()

	if s.PanicOn != "" && raw.InstanceType == s.PanicOn {
		panic("stub price lookup exploded")
	}

	return s.Prices[raw.InstanceType], s.PriceErrs[raw.InstanceType]
}

// PriceCalls returns the instance types FetchPrice was called with, in call order.
func (s *Source) PriceCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.priceCalls...)
}
