// Package aws collects GPU instance types from the EC2 API and their prices from the AWS Price List API.
//
// Memory is reported in MiB and converted with the GiB convention. Prices in China regions are quoted in CNY and
// converted to USD.
package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"k8s.io/utils/ptr"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
)

const (
	serviceCode = "AmazonEC2"
	linuxSpot   = "Linux/UNIX"
	spotWindow  = 90 * 24 * time.Hour

	// a zero on-demand price is retried this many times before it is accepted
	zeroPriceRetries = 3
	zeroPriceDelay   = time.Second
)

var errZeroPrice = errors.New("price list returned a zero on-demand price")

type Source struct {
	clients ClientFactory
	logger  *zap.SugaredLogger

	now            func() time.Time
	zeroPriceDelay time.Duration
}

var _ provider.Source = &Source{}

func NewSource(clients ClientFactory, logger *zap.SugaredLogger) *Source {
	return &Source{
		clients:        clients,
		logger:         logger,
		now:            time.Now,
		zeroPriceDelay: zeroPriceDelay,
	}
}

func (s *Source) ID() instance.Provider {
	return instance.AWS
}

// FetchCatalog lists all instance types of the region and keeps those with GPUs.
func (s *Source) FetchCatalog(ctx context.Context, region string) ([]instance.Raw, error) {
	client, err := s.clients.EC2(ctx, region)
	if err != nil {
		return nil, err
	}

	var catalog []instance.Raw

	paginator := ec2.NewDescribeInstanceTypesPaginator(client, &ec2.DescribeInstanceTypesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instance types in %s: %w", region, err)
		}

		for _, it := range page.InstanceTypes {
			if raw, ok := toRaw(it); ok {
				catalog = append(catalog, raw)
			}
		}
	}

	return catalog, nil
}

func toRaw(it ec2types.InstanceTypeInfo) (instance.Raw, bool) {
	if it.GpuInfo == nil || len(it.GpuInfo.Gpus) == 0 {
		return instance.Raw{}, false
	}

	var count int32
	for _, gpu := range it.GpuInfo.Gpus {
		count += awssdk.ToInt32(gpu.Count)
	}

	raw := instance.Raw{
		InstanceType: string(it.InstanceType),
		MemoryUnit:   normalize.MiB,
		GPUType:      awssdk.ToString(it.GpuInfo.Gpus[0].Name),
		GPUCount:     float64(count),
	}

	if it.VCpuInfo != nil {
		raw.VCPUs = int(awssdk.ToInt32(it.VCpuInfo.DefaultVCpus))
	}

	if it.MemoryInfo != nil {
		raw.Memory = float64(awssdk.ToInt64(it.MemoryInfo.SizeInMiB))
	}

	return raw, true
}

// FetchPrice resolves the on-demand price from the Price List API and the 90-day mean spot price.
// A failing spot lookup does not hide a resolved on-demand price.
func (s *Source) FetchPrice(ctx context.Context, raw instance.Raw, region string) (instance.Quotes, error) {
	var (
		quotes instance.Quotes
		errs   []error
	)

	onDemand, err := s.onDemandPrice(ctx, raw.InstanceType, region)
	if err != nil {
		errs = append(errs, err)
	}

	quotes.OnDemand = onDemand

	spot, err := s.spotPrice(ctx, raw.InstanceType, region)
	if err != nil {
		errs = append(errs, err)
	}

	quotes.Spot = spot

	return quotes, errors.Join(errs...)
}

func (s *Source) onDemandPrice(ctx context.Context, instanceType, region string) (*float64, error) {
	client, err := s.clients.Pricing(ctx, region)
	if err != nil {
		return nil, err
	}

	input := &pricing.GetProductsInput{
		ServiceCode: awssdk.String(serviceCode),
		Filters: []pricingtypes.Filter{
			termMatch("instanceType", instanceType),
			termMatch("operatingSystem", "Linux"),
			termMatch("tenancy", "Shared"),
			termMatch("preInstalledSw", "NA"),
			termMatch("capacitystatus", "Used"),
			termMatch("regionCode", region),
		},
	}

	retryOptions := []retry.Option{
		retry.Attempts(zeroPriceRetries + 1),
		retry.Delay(s.zeroPriceDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			// also called after the last attempt, which is not followed by a retry
			if n+1 > zeroPriceRetries {
				return
			}

			s.namedLogger(region).With(log.KeyInstance, instanceType).With(log.KeyRetry, log.ValueTrue).
				Warnf("on-demand price is 0.0, retrying (%d/%d)", n+1, zeroPriceRetries)
		}),
	}

	price, err := retry.DoWithData(
		func() (*decimal.Decimal, error) {
			out, err := client.GetProducts(ctx, input)
			if err != nil {
				return nil, retry.Unrecoverable(fmt.Errorf("failed to get products for %s: %w", instanceType, err))
			}

			if len(out.PriceList) == 0 {
				return nil, nil
			}

			price, err := parseOnDemandPrice([]byte(out.PriceList[0]), currencyFor(region))
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}

			if price != nil && price.IsZero() {
				return price, errZeroPrice
			}

			return price, nil
		},
		retryOptions...,
	)

	switch {
	case errors.Is(err, errZeroPrice):
		s.namedLogger(region).With(log.KeyInstance, instanceType).
			Warnf("on-demand price is still 0.0 after %d retries", zeroPriceRetries)

		return ptr.To(0.0), nil
	case err != nil:
		return nil, err
	case price == nil:
		s.namedLogger(region).With(log.KeyInstance, instanceType).Debug("no on-demand price found")
		return nil, nil
	}

	return ptr.To(toUSD(*price, region)), nil
}

// spotPrice returns the mean of the Linux spot price history of the last 90 days over all zones.
func (s *Source) spotPrice(ctx context.Context, instanceType, region string) (*float64, error) {
	client, err := s.clients.EC2(ctx, region)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	input := &ec2.DescribeSpotPriceHistoryInput{
		InstanceTypes:       []ec2types.InstanceType{ec2types.InstanceType(instanceType)},
		ProductDescriptions: []string{linuxSpot},
		StartTime:           awssdk.Time(end.Add(-spotWindow)),
		EndTime:             awssdk.Time(end),
	}

	var (
		sum   decimal.Decimal
		count int64
	)

	paginator := ec2.NewDescribeSpotPriceHistoryPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe spot price history for %s: %w", instanceType, err)
		}

		for _, entry := range page.SpotPriceHistory {
			price, err := decimal.NewFromString(awssdk.ToString(entry.SpotPrice))
			if err != nil {
				s.namedLogger(region).With(log.KeyInstance, instanceType).With(log.KeyError, err.Error()).
					Debug("skipping malformed spot price")

				continue
			}

			sum = sum.Add(price)
			count++
		}
	}

	if count == 0 {
		return nil, nil
	}

	return ptr.To(toUSD(sum.Div(decimal.NewFromInt(count)), region)), nil
}

func termMatch(field, value string) pricingtypes.Filter {
	return pricingtypes.Filter{
		Type:  pricingtypes.FilterTypeTermMatch,
		Field: awssdk.String(field),
		Value: awssdk.String(value),
	}
}

func currencyFor(region string) string {
	if isChinaRegion(region) {
		return "CNY"
	}

	return "USD"
}

func toUSD(price decimal.Decimal, region string) float64 {
	if isChinaRegion(region) {
		return normalize.CNYToUSD(price)
	}

	return price.InexactFloat64()
}

func (s *Source) namedLogger(region string) *zap.SugaredLogger {
	return s.logger.With("component", "aws").With(log.KeyRegion, region)
}
