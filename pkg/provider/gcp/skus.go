package gcp

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

type skuList struct {
	SKUs          []sku  `json:"skus"`
	NextPageToken string `json:"nextPageToken"`
}

type sku struct {
	Description    string        `json:"description"`
	Category       skuCategory   `json:"category"`
	ServiceRegions []string      `json:"serviceRegions"`
	PricingInfo    []pricingInfo `json:"pricingInfo"`
}

type skuCategory struct {
	ResourceFamily string `json:"resourceFamily"`
	ResourceGroup  string `json:"resourceGroup"`
	UsageType      string `json:"usageType"`
}

type pricingInfo struct {
	PricingExpression struct {
		TieredRates []struct {
			UnitPrice money `json:"unitPrice"`
		} `json:"tieredRates"`
	} `json:"pricingExpression"`
}

// money is google.type.Money; units is an int64 encoded as a JSON string.
type money struct {
	Units string `json:"units"`
	Nanos int64  `json:"nanos"`
}

func (m money) decimal() (decimal.Decimal, bool) {
	units := decimal.Zero

	if m.Units != "" {
		parsed, err := decimal.NewFromString(m.Units)
		if err != nil {
			return decimal.Zero, false
		}

		units = parsed
	}

	return units.Add(decimal.New(m.Nanos, -9)), true
}

func (s sku) isSpot() bool {
	usage := strings.ToLower(s.Category.UsageType)

	return strings.Contains(s.Description, "Spot") || strings.Contains(strings.ToLower(s.Description), "preemptible") ||
		strings.Contains(usage, "spot") || strings.Contains(usage, "preemptible")
}

func (s sku) isCommitment() bool {
	return strings.HasPrefix(strings.ToLower(s.Category.UsageType), "commit")
}

func (s sku) servesRegion(region string) bool {
	return slices.Contains(s.ServiceRegions, region)
}

// unitPrice returns the first tiered rate of the first pricing info.
func (s sku) unitPrice() (decimal.Decimal, bool) {
	if len(s.PricingInfo) == 0 || len(s.PricingInfo[0].PricingExpression.TieredRates) == 0 {
		return decimal.Zero, false
	}

	return s.PricingInfo[0].PricingExpression.TieredRates[0].UnitPrice.decimal()
}

type priceParts struct {
	onDemand *decimal.Decimal
	spot     *decimal.Decimal
}

// add records price for the usage of the SKU unless that usage is already priced.
func (p *priceParts) add(s sku, price decimal.Decimal) {
	target := &p.onDemand
	if s.isSpot() {
		target = &p.spot
	}

	if *target == nil {
		*target = &price
	}
}

// priceMachine sums the machine price and the price of its GPUs for on-demand and spot usage.
// The machine SKU is the first one whose description contains every dash separated part of the machine name.
// The GPU SKU is the first GPU SKU naming the accelerator without its vendor prefix, e.g. "tesla a100".
func priceMachine(skus []sku, machineName, gpuType string, gpuCount float64, region string) instance.Quotes {
	var machine, gpu priceParts

	keywords := strings.Split(strings.ToLower(machineName), "-")
	gpuSearch := strings.ReplaceAll(strings.TrimPrefix(strings.ToLower(gpuType), "nvidia-"), "-", " ")

	for _, s := range skus {
		if s.isCommitment() || !s.servesRegion(region) {
			continue
		}

		description := strings.ToLower(s.Description)

		price, ok := s.unitPrice()
		if !ok {
			continue
		}

		if containsAll(description, keywords) {
			machine.add(s, price)
		}

		if gpuSearch != "" && strings.Contains(description, "gpu") && strings.Contains(description, gpuSearch) {
			gpu.add(s, price.Mul(decimal.NewFromFloat(gpuCount)))
		}
	}

	return instance.Quotes{
		OnDemand: sum(machine.onDemand, gpu.onDemand),
		Spot:     sum(machine.spot, gpu.spot),
	}
}

func containsAll(text string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(text, k) {
			return false
		}
	}

	return len(keywords) > 0
}

// sum adds the known parts. It returns nil if no part is known.
func sum(parts ...*decimal.Decimal) *float64 {
	var (
		total decimal.Decimal
		known bool
	)

	for _, p := range parts {
		if p != nil {
			total = total.Add(*p)
			known = true
		}
	}

	if !known {
		return nil
	}

	f := total.InexactFloat64()

	return &f
}
