package provider

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/metrics"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	gpuotel "github.com/kyma-project/gpu-pricing-collector/pkg/otel"
	"github.com/kyma-project/gpu-pricing-collector/pkg/ratelimit"
)

// Source talks to one cloud provider. Implementations return errors; the Adapter decides what to do with them.
type Source interface {
	ID() instance.Provider
	// FetchCatalog lists the GPU instance types offered in the region.
	FetchCatalog(ctx context.Context, region string) ([]instance.Raw, error)
	// FetchPrice resolves the hourly quotes of one catalog record.
	FetchPrice(ctx context.Context, raw instance.Raw, region string) (instance.Quotes, error)
}

// Fetcher returns the standardized GPU instances of a provider region. It never fails: an empty result
// means nothing was found or the provider could not be reached.
type Fetcher interface {
	ID() instance.Provider
	GetStandardizedGPUInstances(ctx context.Context, region string) []instance.Standardized
}

type Adapter struct {
	source     Source
	limiter    ratelimit.Limiter
	convention normalize.MemoryConvention
	logger     *zap.SugaredLogger
}

var _ Fetcher = &Adapter{}

// NewAdapter wraps source. The limiter gates every FetchPrice call, the convention decides how memory is reported.
func NewAdapter(source Source, convention normalize.MemoryConvention, limiter ratelimit.Limiter, logger *zap.SugaredLogger) *Adapter {
	if limiter == nil {
		limiter = ratelimit.None()
	}

	return &Adapter{
		source:     source,
		limiter:    limiter,
		convention: convention,
		logger:     logger,
	}
}

func (a *Adapter) ID() instance.Provider {
	return a.source.ID()
}

// GetStandardizedGPUInstances fetches the catalog of the region and standardizes every GPU record.
// Failures are logged and end up as an empty result or as unknown prices.
func (a *Adapter) GetStandardizedGPUInstances(ctx context.Context, region string) (result []instance.Standardized) {
	provider := a.ID().String()

	ctx, span := otel.Tracer(gpuotel.TracerName).Start(ctx, "gpupc.fetch_gpu_instances", gpuotel.SpanAttributes(provider, region))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("recovered from panic: %v", r)
			a.namedLogger(region).With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).
				Error("fetching GPU instances")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordFetch(false, provider, region)
			metrics.RecordInstances(provider, region, 0)

			result = nil
		}
	}()

	catalog, err := a.source.FetchCatalog(ctx, region)
	if err != nil {
		a.namedLogger(region).With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).
			Error("fetching instance catalog")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordFetch(false, provider, region)
		metrics.RecordInstances(provider, region, 0)

		return nil
	}

	a.namedLogger(region).With(log.KeyCount, len(catalog)).Debug("fetched instance catalog")

	result = make([]instance.Standardized, 0, len(catalog))

	for _, raw := range catalog {
		row, ok := a.standardize(raw, region)
		if !ok {
			continue
		}

		if err := a.limiter.Wait(ctx); err != nil {
			a.namedLogger(region).With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).
				Error("waiting for the rate limiter")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordFetch(false, provider, region)
			metrics.RecordInstances(provider, region, 0)

			return nil
		}

		// on error the source may still return the quotes it could resolve
		quotes, err := a.source.FetchPrice(ctx, raw, region)
		if err != nil {
			a.namedLogger(region).With(log.KeyInstance, row.InstanceType).With(log.KeyError, err.Error()).
				Warn("price lookup failed, missing quotes are unknown")
			metrics.RecordPriceFailure(provider)
		}

		row.OnDemandPerHour = firstKnown(quotes.OnDemand, raw.Quotes.OnDemand)
		row.SpotPerHour = firstKnown(quotes.Spot, raw.Quotes.Spot)

		result = append(result, row)
	}

	// a cancelled run leaves the target without rows rather than with a partial catalog
	if err := ctx.Err(); err != nil {
		a.namedLogger(region).With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).
			Error("fetching GPU instances")
		metrics.RecordFetch(false, provider, region)
		metrics.RecordInstances(provider, region, 0)

		return nil
	}

	metrics.RecordFetch(true, provider, region)
	metrics.RecordInstances(provider, region, len(result))
	a.namedLogger(region).With(log.KeyResult, log.ValueSuccess).With(log.KeyCount, len(result)).
		Info("standardized GPU instances")

	return result
}

// standardize converts raw into a row without prices. It reports false when the record has to be skipped.
func (a *Adapter) standardize(raw instance.Raw, region string) (instance.Standardized, bool) {
	provider := a.ID().String()

	instanceType := strings.TrimSpace(raw.InstanceType)
	if instanceType == "" {
		metrics.RecordSkipped(provider, metrics.ReasonEmptyInstanceType)
		a.namedLogger(region).Debug("skipping record without instance type")

		return instance.Standardized{}, false
	}

	gpuType, gpuCount := strings.TrimSpace(raw.GPUType), raw.GPUCount

	if raw.GPUDescriptor != "" {
		gpu := normalize.ParseGPUDescriptor(raw.GPUDescriptor)
		if gpu == nil {
			metrics.RecordSkipped(provider, metrics.ReasonUnparsableGPU)
			a.namedLogger(region).With(log.KeyInstance, instanceType).
				Debugf("skipping record with unparsable GPU descriptor %q", raw.GPUDescriptor)

			return instance.Standardized{}, false
		}

		gpuType, gpuCount = gpu.Type, gpu.Count
	}

	if gpuCount <= 0 {
		metrics.RecordSkipped(provider, metrics.ReasonNoGPU)
		a.namedLogger(region).With(log.KeyInstance, instanceType).Debug("skipping record without GPU")

		return instance.Standardized{}, false
	}

	if gpuType == "" {
		gpuType = instance.UnknownGPUType
	}

	return instance.Standardized{
		Provider:     a.ID(),
		Region:       region,
		InstanceType: instanceType,
		VCPUs:        max(raw.VCPUs, 0),
		MemoryGB:     normalize.Memory(raw.Memory, raw.MemoryUnit, a.convention),
		GPUType:      gpuType,
		GPUCount:     gpuCount,
	}, true
}

func (a *Adapter) namedLogger(region string) *zap.SugaredLogger {
	return a.logger.With("component", "adapter").With(log.KeyProvider, a.ID().String()).With(log.KeyRegion, region)
}

func firstKnown(quotes ...*float64) *float64 {
	for _, q := range quotes {
		if q != nil {
			return q
		}
	}

	return nil
}
