package collector

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"k8s.io/utils/ptr"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	"github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider/stubs"
	gpupctesting "github.com/kyma-project/gpu-pricing-collector/pkg/testing"
)

func newTestRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register(stubs.NewFetcher(instance.AWS,
		gpupctesting.NewRow(instance.AWS, "p3.2xlarge", gpupctesting.WithPrices(ptr.To(3.06), ptr.To(0.92))),
		gpupctesting.NewRow(instance.AWS, "g4dn.xlarge", gpupctesting.WithPrices(ptr.To(0.526), nil)),
	))
	registry.Register(stubs.NewPanickingFetcher(instance.Azure))
	registry.Register(stubs.NewFetcher(instance.Tencent,
		gpupctesting.NewRow(instance.Tencent, "GN7.2XLARGE32", gpupctesting.WithPrices(ptr.To(1.449), nil)),
	))
	registry.Register(stubs.NewFetcher(instance.Alibaba,
		gpupctesting.NewRow(instance.Alibaba, "ecs.gn6i-c4g1.xlarge"),
	), "ali", "aliyun")

	return registry
}

func TestCollector_PartialFailure(t *testing.T) {
	// A succeeds, B fails, C succeeds: the table holds the rows of A followed by the rows of C
	for _, concurrency := range []int{1, 3} {
		c := New(newTestRegistry(), concurrency, logger.NewLogger(zapcore.DebugLevel))

		targets := []Target{
			{Provider: "AWS", Region: "us-west-2"},
			{Provider: "Azure", Region: "westus2"},
			{Provider: "tencent", Region: "na-siliconvalley"},
		}

		results := c.Collect(context.Background(), targets)
		require.Len(t, results, 3)
		require.NoError(t, results[0].Err)
		require.ErrorIs(t, results[1].Err, ErrFetcherPanicked)
		require.Equal(t, "Azure", results[1].Provider)
		require.NoError(t, results[2].Err)
		require.Equal(t, "Tencent", results[2].Provider)

		table := c.Run(context.Background(), targets)
		require.Len(t, table, 3)
		require.Equal(t, "p3.2xlarge", table[0].InstanceType)
		require.Equal(t, "us-west-2", table[0].Region)
		require.Equal(t, "g4dn.xlarge", table[1].InstanceType)
		require.Equal(t, "GN7.2XLARGE32", table[2].InstanceType)
		require.Equal(t, "na-siliconvalley", table[2].Region)
	}
}

func TestCollector_UnsupportedProvider(t *testing.T) {
	c := New(newTestRegistry(), 1, logger.NewLogger(zapcore.DebugLevel))

	results := c.Collect(context.Background(), []Target{
		{Provider: "oracle", Region: "us-phoenix-1"},
		{Provider: "aliyun", Region: "us-west-1"},
	})

	require.ErrorIs(t, results[0].Err, provider.ErrUnsupportedProvider)
	require.Equal(t, "oracle", results[0].Provider)
	require.NoError(t, results[1].Err)
	require.Equal(t, "Alibaba", results[1].Provider)
	require.Len(t, results[1].Instances, 1)

	require.Positive(t, testutil.ToFloat64(TotalTargets.WithLabelValues(ResultFailed, "oracle", "us-phoenix-1")))
}

func TestCollector_TargetResults(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(stubs.NewFetcher(instance.GCP))

	c := New(registry, 1, logger.NewLogger(zapcore.DebugLevel))
	c.Collect(context.Background(), []Target{
		{Provider: "aws", Region: "ap-south-2"},
		{Provider: "gcp", Region: "me-west1"},
		{Provider: "azure", Region: "polandcentral"},
	})

	require.Equal(t, 1.0, testutil.ToFloat64(TotalTargets.WithLabelValues(ResultCompleted, "AWS", "ap-south-2")))
	require.Equal(t, 1.0, testutil.ToFloat64(TotalTargets.WithLabelValues(ResultEmpty, "GCP", "me-west1")))
	require.Equal(t, 1.0, testutil.ToFloat64(TotalTargets.WithLabelValues(ResultFailed, "Azure", "polandcentral")))
	require.Zero(t, testutil.ToFloat64(TotalTargets.WithLabelValues(ResultCompleted, "GCP", "me-west1")))
}

func TestCollector_OrderIndependentOfConcurrency(t *testing.T) {
	targets := []Target{
		{Provider: "tencent", Region: "ap-tokyo"},
		{Provider: "aws", Region: "us-east-1"},
		{Provider: "ali", Region: "us-west-1"},
		{Provider: "aws", Region: "eu-west-1"},
		{Provider: "tencent", Region: "na-ashburn"},
	}

	sequential := New(newTestRegistry(), 1, logger.NewLogger(zapcore.DebugLevel)).Run(context.Background(), targets)
	parallel := New(newTestRegistry(), 4, logger.NewLogger(zapcore.DebugLevel)).Run(context.Background(), targets)

	require.Len(t, sequential, 7)
	require.Equal(t, sequential, parallel)
}

func TestCollector_NoTargets(t *testing.T) {
	c := New(newTestRegistry(), 0, logger.NewLogger(zapcore.DebugLevel))

	require.Empty(t, c.Run(context.Background(), nil))
	require.Equal(t, 0.0, testutil.ToFloat64(TableRows))
}

func TestTarget_String(t *testing.T) {
	require.Equal(t, "AWS=us-west-2", Target{Provider: "AWS", Region: "us-west-2"}.String())
}
