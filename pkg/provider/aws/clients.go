package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/pkg/errors"
)

const (
	// The Price List API is only served from these regions.
	globalPricingRegion = "us-east-1"
	chinaPricingRegion  = "cn-northwest-1"
	chinaRegionPrefix   = "cn-"
	chinaEndpointFormat = "https://%s.%s.amazonaws.com.cn"
)

type EC2API interface {
	ec2.DescribeInstanceTypesAPIClient
	ec2.DescribeSpotPriceHistoryAPIClient
}

type PricingAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// ClientFactory creates the API clients serving a target region.
type ClientFactory interface {
	EC2(ctx context.Context, region string) (EC2API, error)
	Pricing(ctx context.Context, region string) (PricingAPI, error)
}

// SDKClientFactory builds clients from the default credential chain. Configs are loaded once per region.
type SDKClientFactory struct {
	mu      sync.Mutex
	configs map[string]awssdk.Config
}

var _ ClientFactory = &SDKClientFactory{}

func NewSDKClientFactory() *SDKClientFactory {
	return &SDKClientFactory{configs: make(map[string]awssdk.Config)}
}

func (f *SDKClientFactory) EC2(ctx context.Context, region string) (EC2API, error) {
	cfg, err := f.config(ctx, region)
	if err != nil {
		return nil, err
	}

	return ec2.NewFromConfig(cfg, func(o *ec2.Options) {
		if isChinaRegion(region) {
			o.BaseEndpoint = awssdk.String(fmt.Sprintf(chinaEndpointFormat, "ec2", region))
		}
	}), nil
}

func (f *SDKClientFactory) Pricing(ctx context.Context, region string) (PricingAPI, error) {
	pricingRegion := pricingRegionFor(region)

	cfg, err := f.config(ctx, pricingRegion)
	if err != nil {
		return nil, err
	}

	return pricing.NewFromConfig(cfg, func(o *pricing.Options) {
		if isChinaRegion(region) {
			o.BaseEndpoint = awssdk.String(fmt.Sprintf(chinaEndpointFormat, "api.pricing", pricingRegion))
		}
	}), nil
}

func (f *SDKClientFactory) config(ctx context.Context, region string) (awssdk.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cfg, ok := f.configs[region]; ok {
		return cfg, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, errors.Wrapf(err, "failed to load AWS config for region %s", region)
	}

	f.configs[region] = cfg

	return cfg, nil
}

func isChinaRegion(region string) bool {
	return strings.HasPrefix(region, chinaRegionPrefix)
}

func pricingRegionFor(region string) string {
	if isChinaRegion(region) {
		return chinaPricingRegion
	}

	return globalPricingRegion
}
