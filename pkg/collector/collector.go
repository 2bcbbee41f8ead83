// Package collector runs provider fetchers over a list of provider-region targets and merges their rows into one
// table.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	gpuotel "github.com/kyma-project/gpu-pricing-collector/pkg/otel"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
)

var ErrFetcherPanicked = errors.New("fetcher panicked")

// Target is one provider-region pair to collect. Provider is resolved through the registry, so aliases work.
type Target struct {
	Provider string `json:"provider"`
	Region   string `json:"region"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s=%s", t.Provider, t.Region)
}

// Result is the outcome of one target. A result with Err contributes no rows to the merged table.
type Result struct {
	Provider  string
	Region    string
	Instances []instance.Standardized
	Err       error
}

type Collector struct {
	registry    *provider.Registry
	concurrency int
	logger      *zap.SugaredLogger
}

// New returns a collector resolving targets through registry. At most concurrency targets are collected at a time.
func New(registry *provider.Registry, concurrency int, logger *zap.SugaredLogger) *Collector {
	return &Collector{
		registry:    registry,
		concurrency: max(concurrency, 1),
		logger:      logger,
	}
}

// Run collects every target and returns the merged table. Rows keep the order of the targets.
func (c *Collector) Run(ctx context.Context, targets []Target) Table {
	start := time.Now()

	ctx, span := otel.Tracer(gpuotel.TracerName).Start(ctx, "gpupc.collect")
	defer span.End()

	results := c.Collect(ctx, targets)

	var errs []error

	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s=%s: %w", r.Provider, r.Region, r.Err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	table := Merge(results...)

	RecordRun(time.Since(start), len(table))
	c.namedLogger().With(log.KeyCount, len(table)).
		Infof("collected %d targets, %d failed, in %s", len(targets), len(errs), time.Since(start).Round(time.Millisecond))

	return table
}

// Collect returns one result per target, in the order of the targets.
func (c *Collector) Collect(ctx context.Context, targets []Target) []Result {
	results := make([]Result, len(targets))

	var g errgroup.Group

	g.SetLimit(c.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			// every goroutine owns its slot
			results[i] = c.collect(ctx, target)
			return nil
		})
	}

	// collect never returns an error
	_ = g.Wait()

	return results
}

func (c *Collector) collect(ctx context.Context, target Target) (result Result) {
	result = Result{Provider: target.Provider, Region: target.Region}

	fetcher, err := c.registry.Lookup(target.Provider)
	if err != nil {
		c.namedLogger().With(log.KeyProvider, target.Provider).With(log.KeyRegion, target.Region).
			With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).Error("resolving provider")
		RecordTarget(ResultFailed, target.Provider, target.Region)

		result.Err = err

		return result
	}

	result.Provider = fetcher.ID().String()

	defer func() {
		if r := recover(); r != nil {
			result.Instances = nil
			result.Err = fmt.Errorf("%w: %v", ErrFetcherPanicked, r)

			c.namedLogger().With(log.KeyProvider, result.Provider).With(log.KeyRegion, target.Region).
				With(log.KeyResult, log.ValueFail).With(log.KeyError, result.Err.Error()).Error("collecting target")
			RecordTarget(ResultFailed, result.Provider, target.Region)
		}
	}()

	result.Instances = fetcher.GetStandardizedGPUInstances(ctx, target.Region)

	if len(result.Instances) == 0 {
		RecordTarget(ResultEmpty, result.Provider, target.Region)
	} else {
		RecordTarget(ResultCompleted, result.Provider, target.Region)
	}

	c.namedLogger().With(log.KeyProvider, result.Provider).With(log.KeyRegion, target.Region).
		With(log.KeyCount, len(result.Instances)).Debug("collected target")

	return result
}

func (c *Collector) namedLogger() *zap.SugaredLogger {
	return c.logger.With("component", "collector")
}
