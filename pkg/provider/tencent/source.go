// Package tencent collects GPU instance types of Tencent Cloud CVM through the console workbench API, which answers
// DescribeZoneInstanceConfigInfos with the hourly pay-as-you-go price of every instance type.
//
// Instance types are listed for zone <region>-2. Prices are quoted in CNY and converted to USD. There is no spot
// price. Memory is given in GiB and reported with the decimal GB convention.
package tencent

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"k8s.io/utils/ptr"

	"github.com/kyma-project/gpu-pricing-collector/pkg/httpclient"
	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
)

const (
	zoneSuffix = "-2"

	serviceType = "cvm"
	action      = "DescribeZoneInstanceConfigInfos"
	apiVersion  = "2017-03-12"
	platform    = "LINUX"
	chargeType  = "POSTPAID_BY_HOUR"

	gpuDescSeparator = " * "

	AttributeZone = "zone"
)

type request struct {
	ServiceType string      `json:"serviceType"`
	Action      string      `json:"action"`
	Region      string      `json:"region"`
	Data        requestData `json:"data"`
	CGIName     string      `json:"cgiName"`
}

type requestData struct {
	Filters  []filter `json:"Filters"`
	Platform string   `json:"Platform"`
	Version  string   `json:"Version"`
}

type filter struct {
	Name   string   `json:"name"`
	Values []string `json:"Values"`
}

type response struct {
	Data *struct {
		Response *struct {
			InstanceTypeQuotaSet []instanceTypeQuota `json:"InstanceTypeQuotaSet"`
			Error                *apiError           `json:"Error"`
		} `json:"Response"`
	} `json:"data"`
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type instanceTypeQuota struct {
	Zone         string            `json:"Zone"`
	InstanceType string            `json:"InstanceType"`
	CPU          int               `json:"Cpu"`
	Memory       float64           `json:"Memory"`
	GPU          float64           `json:"Gpu"`
	GPUCount     float64           `json:"GpuCount"`
	Price        *price            `json:"Price"`
	Externals    instanceExternals `json:"Externals"`
}

type price struct {
	UnitPrice *decimal.Decimal `json:"UnitPrice"`
}

type instanceExternals struct {
	GPUDesc string `json:"GPUDesc"`
}

type Source struct {
	client *httpclient.Client
	apiURL string
	logger *zap.SugaredLogger
}

var _ provider.Source = &Source{}

func NewSource(client *httpclient.Client, apiURL string, logger *zap.SugaredLogger) *Source {
	return &Source{
		client: client,
		apiURL: apiURL,
		logger: logger,
	}
}

func (s *Source) ID() instance.Provider {
	return instance.Tencent
}

// FetchCatalog returns the instance types with a GPU offered pay-as-you-go in the first zone of the region.
func (s *Source) FetchCatalog(ctx context.Context, region string) ([]instance.Raw, error) {
	zone := region + zoneSuffix

	var resp response
	if err := s.client.PostJSON(ctx, s.apiURL, nil, newRequest(region, zone), &resp); err != nil {
		return nil, fmt.Errorf("failed to describe Tencent instance types in %s: %w", zone, err)
	}

	if resp.Data == nil || resp.Data.Response == nil {
		return nil, fmt.Errorf("unexpected Tencent response for %s: missing data.Response", zone)
	}

	if apiErr := resp.Data.Response.Error; apiErr != nil {
		return nil, fmt.Errorf("tencent API error %s: %s", apiErr.Code, apiErr.Message)
	}

	var catalog []instance.Raw

	for _, quota := range resp.Data.Response.InstanceTypeQuotaSet {
		if quota.GPU <= 0 {
			continue
		}

		raw := instance.Raw{
			InstanceType: quota.InstanceType,
			VCPUs:        quota.CPU,
			Memory:       quota.Memory,
			MemoryUnit:   normalize.GiB,
			GPUType:      gpuType(quota.Externals.GPUDesc),
			GPUCount:     quota.GPUCount,
			Attributes:   map[string]string{AttributeZone: zone},
		}

		if quota.Price != nil && quota.Price.UnitPrice != nil {
			raw.Quotes.OnDemand = ptr.To(normalize.CNYToUSD(*quota.Price.UnitPrice))
		}

		catalog = append(catalog, raw)
	}

	s.namedLogger(region).With(log.KeyCount, len(catalog)).
		Debugf("%d instance types described in %s", len(resp.Data.Response.InstanceTypeQuotaSet), zone)

	return catalog, nil
}

// FetchPrice returns the quotes described in FetchCatalog.
func (s *Source) FetchPrice(ctx context.Context, raw instance.Raw, region string) (instance.Quotes, error) {
	return raw.Quotes, nil
}

func newRequest(region, zone string) request {
	return request{
		ServiceType: serviceType,
		Action:      action,
		Region:      region,
		Data: requestData{
			Filters: []filter{
				{Name: "zone", Values: []string{zone}},
				{Name: "instance-charge-type", Values: []string{chargeType}},
			},
			Platform: platform,
			Version:  apiVersion,
		},
		CGIName: "api",
	}
}

// gpuType returns the model of a "<count> * <model>" description, e.g. "1 * NVIDIA T4".
func gpuType(desc string) string {
	if gpu := normalize.ParseGPUDescriptor(desc); gpu != nil {
		return gpu.Type
	}

	if _, model, ok := strings.Cut(desc, gpuDescSeparator); ok && strings.TrimSpace(model) != "" {
		return strings.TrimSpace(model)
	}

	return instance.UnknownGPUType
}

func (s *Source) namedLogger(region string) *zap.SugaredLogger {
	return s.logger.With("component", "tencent").With(log.KeyRegion, region)
}
