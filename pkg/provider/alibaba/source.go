// Package alibaba collects GPU instance types of Alibaba Cloud ECS from the two files behind the public pricing
// calculator: instanceTypeDefinition.js, a JavaScript array literal describing every instance type, and
// instancePrice.json, the hourly list prices keyed by "region::type::network::os...".
//
// Only instance types with a Linux VPC price in the region are reported. There is no spot price. Memory is given in
// GiB and reported with the GiB convention.
package alibaba

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"k8s.io/utils/ptr"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	"github.com/kyma-project/gpu-pricing-collector/pkg/jsrepair"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
)

const (
	priceKeySeparator = "::"
	networkVPC        = "vpc"
	osLinux           = "linux"

	// AttributePriceKey is the pricing key the on-demand quote was taken from.
	AttributePriceKey = "price_key"
)

type instanceTypeDefinition struct {
	InstanceTypeID string  `json:"InstanceTypeId"`
	CPUCoreCount   int     `json:"CpuCoreCount"`
	MemorySize     float64 `json:"MemorySize"`
	GPUSpec        string  `json:"GPUSpec"`
	GPUAmount      float64 `json:"GPUAmount"`
}

type priceFile struct {
	PricingInfo map[string]json.RawMessage `json:"pricingInfo"`
}

type priceEntry struct {
	Hours []struct {
		// the calculator quotes prices as strings, older files as numbers
		Price json.Number `json:"price"`
	} `json:"hours"`
}

type regionPrice struct {
	key   string
	price *float64
}

type Source struct {
	fs             afero.Fs
	instanceTypes  string
	instancePrices string
	logger         *zap.SugaredLogger
}

var _ provider.Source = &Source{}

// NewSource reads the instance type definitions and the price file from fs.
func NewSource(fs afero.Fs, instanceTypesPath, instancePricesPath string, logger *zap.SugaredLogger) *Source {
	return &Source{
		fs:             fs,
		instanceTypes:  instanceTypesPath,
		instancePrices: instancePricesPath,
		logger:         logger,
	}
}

func (s *Source) ID() instance.Provider {
	return instance.Alibaba
}

// FetchCatalog returns the GPU instance types priced in the region, in the order of the definition file.
func (s *Source) FetchCatalog(ctx context.Context, region string) ([]instance.Raw, error) {
	prices, err := s.loadPrices(region)
	if err != nil {
		return nil, err
	}

	definitions, err := s.loadDefinitions()
	if err != nil {
		return nil, err
	}

	var catalog []instance.Raw

	for _, d := range definitions {
		if d.GPUAmount <= 0 || d.InstanceTypeID == "" {
			continue
		}

		price, ok := prices[d.InstanceTypeID]
		if !ok {
			continue
		}

		catalog = append(catalog, instance.Raw{
			InstanceType: d.InstanceTypeID,
			VCPUs:        d.CPUCoreCount,
			Memory:       d.MemorySize,
			MemoryUnit:   normalize.GiB,
			GPUType:      d.GPUSpec,
			GPUCount:     d.GPUAmount,
			Quotes:       instance.Quotes{OnDemand: price.price},
			Attributes:   map[string]string{AttributePriceKey: price.key},
		})
	}

	s.namedLogger(region).With(log.KeyCount, len(catalog)).
		Debugf("%d instance types priced in the region", len(prices))

	return catalog, nil
}

// FetchPrice returns the quotes read in FetchCatalog.
func (s *Source) FetchPrice(ctx context.Context, raw instance.Raw, region string) (instance.Quotes, error) {
	return raw.Quotes, nil
}

func (s *Source) loadDefinitions() ([]instanceTypeDefinition, error) {
	content, err := afero.ReadFile(s.fs, s.instanceTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to read Alibaba instance types: %w", err)
	}

	repaired, err := jsrepair.RepairArray(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to repair Alibaba instance types %s: %w", s.instanceTypes, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(repaired, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode Alibaba instance types %s: %w", s.instanceTypes, err)
	}

	definitions := make([]instanceTypeDefinition, 0, len(entries))

	for i, entry := range entries {
		var d instanceTypeDefinition
		if err := json.Unmarshal(entry, &d); err != nil {
			s.logger.With("component", "alibaba").With(log.KeyError, err.Error()).
				Debugf("skipping malformed instance type definition %d", i)

			continue
		}

		definitions = append(definitions, d)
	}

	return definitions, nil
}

// loadPrices maps every instance type with a Linux VPC price in the region to its hourly price.
// When a type has several matching keys the lexically first one with an hourly price wins. A type whose keys
// are all unpriced keeps the first key and a nil price.
func (s *Source) loadPrices(region string) (map[string]regionPrice, error) {
	content, err := afero.ReadFile(s.fs, s.instancePrices)
	if err != nil {
		return nil, fmt.Errorf("failed to read Alibaba prices: %w", err)
	}

	var file priceFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to decode Alibaba prices %s: %w", s.instancePrices, err)
	}

	keys := make([]string, 0, len(file.PricingInfo))
	for key := range file.PricingInfo {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	prices := make(map[string]regionPrice)

	for _, key := range keys {
		instanceType, ok := matchPriceKey(key, region)
		if !ok {
			continue
		}

		current, seen := prices[instanceType]
		if seen && current.price != nil {
			continue
		}

		price := s.hourlyPrice(key, file.PricingInfo[key])
		if seen && price == nil {
			continue
		}

		prices[instanceType] = regionPrice{key: key, price: price}
	}

	return prices, nil
}

// hourlyPrice returns the first hourly price of the entry or nil if the entry has none.
func (s *Source) hourlyPrice(key string, raw json.RawMessage) *float64 {
	var entry priceEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.With("component", "alibaba").With(log.KeyError, err.Error()).Debugf("skipping malformed price %q", key)
		return nil
	}

	if len(entry.Hours) == 0 || entry.Hours[0].Price == "" {
		return nil
	}

	price, err := entry.Hours[0].Price.Float64()
	if err != nil {
		return nil
	}

	return ptr.To(price)
}

// matchPriceKey returns the instance type of a Linux VPC pricing key of the region.
func matchPriceKey(key, region string) (string, bool) {
	parts := strings.Split(key, priceKeySeparator)
	if len(parts) < 2 || parts[0] != region || parts[1] == "" {
		return "", false
	}

	if !strings.Contains(key, networkVPC) || !strings.Contains(key, osLinux) {
		return "", false
	}

	return parts[1], true
}

func (s *Source) namedLogger(region string) *zap.SugaredLogger {
	return s.logger.With("component", "alibaba").With(log.KeyRegion, region)
}
