package stubs

import (
	"context"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

type Fetcher struct {
	provider instance.Provider
	rows     []instance.Standardized
	panics   bool
}

// NewFetcher returns a fetcher serving rows for every region. The region of each row is replaced by the requested one.
func NewFetcher(provider instance.Provider, rows ...instance.Standardized) Fetcher {
	return Fetcher{provider: provider, rows: rows}
}

// NewPanickingFetcher returns a fetcher that breaks its never-panic contract.
func NewPanickingFetcher(provider instance.Provider) Fetcher {
	return Fetcher{provider: provider, panics: true}
}

func (f Fetcher) ID() instance.Provider {
	return f.provider
}

func (f Fetcher) GetStandardizedGPUInstances(ctx context.Context, region string) []instance.Standardized {
	if f.panics {
		panic("stub fetcher exploded")
	}

	rows := make([]instance.Standardized, 0, len(f.rows))
	for _, row := range f.rows {
		row.Region = region
		rows = append(rows, row)
	}

	return rows
}
