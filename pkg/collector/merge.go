package collector

import (
	"strings"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

// Table is the merged comparison table.
type Table []instance.Standardized

// Merge concatenates the rows of results in order. Results with an error are skipped, rows are never deduplicated.
func Merge(results ...Result) Table {
	size := 0
	for _, r := range results {
		if r.Err == nil {
			size += len(r.Instances)
		}
	}

	table := make(Table, 0, size)

	for _, r := range results {
		if r.Err != nil {
			continue
		}

		for _, row := range r.Instances {
			table = append(table, sanitize(row))
		}
	}

	return table
}

// sanitize clamps negative numbers to 0 and names unknown GPUs. Unknown prices stay unknown.
func sanitize(row instance.Standardized) instance.Standardized {
	row.VCPUs = max(row.VCPUs, 0)
	row.MemoryGB = max(row.MemoryGB, 0)
	row.GPUCount = max(row.GPUCount, 0)

	if strings.TrimSpace(row.GPUType) == "" {
		row.GPUType = instance.UnknownGPUType
	}

	row.OnDemandPerHour = clampPrice(row.OnDemandPerHour)
	row.SpotPerHour = clampPrice(row.SpotPerHour)

	return row
}

func clampPrice(p *float64) *float64 {
	if p == nil || *p >= 0 {
		return p
	}

	zero := 0.0

	return &zero
}
