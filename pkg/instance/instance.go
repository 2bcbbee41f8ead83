package instance

import (
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
)

type Provider string

const (
	AWS     Provider = "AWS"
	Azure   Provider = "Azure"
	GCP     Provider = "GCP"
	Alibaba Provider = "Alibaba"
	Tencent Provider = "Tencent"
)

// UnknownGPUType is reported when a provider does not name the accelerator.
const UnknownGPUType = "N/A"

func (p Provider) String() string {
	return string(p)
}

// Quotes holds the hourly USD prices of an instance type. A nil quote is unknown.
type Quotes struct {
	OnDemand *float64
	Spot     *float64
}

// Raw is an instance type as the provider describes it, before normalization.
// The GPU is either given as a free text descriptor or as GPUType and GPUCount.
type Raw struct {
	InstanceType  string
	VCPUs         int
	Memory        float64
	MemoryUnit    normalize.MemoryUnit
	GPUDescriptor string
	GPUType       string
	GPUCount      float64
	// Quotes already known from the catalog payload. FetchPrice may complete them.
	Quotes Quotes
	// Attributes carries provider specific join key material, e.g. the pricing feed key.
	Attributes map[string]string
}

// Attribute returns the value of a provider specific attribute or an empty string.
func (r Raw) Attribute(key string) string {
	if r.Attributes == nil {
		return ""
	}

	return r.Attributes[key]
}

// Standardized is one row of the comparison table.
type Standardized struct {
	Provider        Provider
	Region          string
	InstanceType    string
	VCPUs           int
	MemoryGB        float64
	GPUType         string
	GPUCount        float64
	OnDemandPerHour *float64
	SpotPerHour     *float64
}
