package alibaba

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"k8s.io/utils/ptr"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	"github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
	"github.com/kyma-project/gpu-pricing-collector/pkg/ratelimit"
)

const (
	typesPath  = "/data/instanceTypeDefinition.js"
	pricesPath = "/data/instancePrice.json"
)

// the definition file as served by the pricing calculator: missing commas, single quotes and comments
const instanceTypesJS = `var instanceTypeDefineItems = [
{"InstanceTypeId": "ecs.gn6i-c4g1.xlarge" "CpuCoreCount": 4 "MemorySize": 15.0 "GPUSpec": "NVIDIA T4" "GPUAmount": 1}
{"InstanceTypeId": "ecs.g7.large", "CpuCoreCount": 2, "MemorySize": 8, "GPUAmount": 0}
{"InstanceTypeId": "ecs.gn7i-c8g1.2xlarge", "CpuCoreCount": 8, "MemorySize": 30, "GPUSpec": "NVIDIA A10", "GPUAmount": 1},
{InstanceTypeId: 'ecs.sgn7i-vws-m2.xlarge', CpuCoreCount: 4, MemorySize: 15.5, GPUSpec: 'NVIDIA A10', GPUAmount: 0.25}, // vGPU
{"InstanceTypeId": "ecs.gn5-c4g1.xlarge", "CpuCoreCount": 4, "MemorySize": 30, "GPUSpec": "NVIDIA P100", "GPUAmount": 1}
"not an instance type"
];`

const instancePriceJSON = `{
  "currency": "USD",
  "pricingInfo": {
    "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::linux::optimized": {"hours": [{"price": "1.2", "period": "1"}]},
    "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::windows::optimized": {"hours": [{"price": "1.5", "period": "1"}]},
    "us-west-1::ecs.gn7i-c8g1.2xlarge::vpc::linux::a": {"hours": []},
    "us-west-1::ecs.gn7i-c8g1.2xlarge::vpc::linux::optimized": {"hours": [{"price": 2.3, "period": "1"}]},
    "us-west-1::ecs.gn7i-c8g1.2xlarge::vpc::linux::z": {"hours": [{"price": 9.9, "period": "1"}]},
    "us-west-1::ecs.sgn7i-vws-m2.xlarge::vpc::linux::optimized": {"hours": []},
    "us-west-1::ecs.sgn7i-vws-m2.xlarge::vpc::linux::spot": {"hours": [{"price": ""}]},
    "us-west-1::ecs.g7.large::vpc::linux::optimized": {"hours": [{"price": "0.1", "period": "1"}]},
    "us-east-1::ecs.gn5-c4g1.xlarge::vpc::linux::optimized": {"hours": [{"price": "3.0", "period": "1"}]},
    "us-west-1::ecs.gn5-c4g1.xlarge::classic::windows": {"hours": [{"price": "3.5", "period": "1"}]}
  }
}`

func newTestSource(t *testing.T, files map[string]string) *Source {
	fs := afero.NewMemMapFs()

	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	return NewSource(fs, typesPath, pricesPath, logger.NewLogger(zapcore.DebugLevel))
}

func TestSource_FetchCatalog(t *testing.T) {
	source := newTestSource(t, map[string]string{
		typesPath:  instanceTypesJS,
		pricesPath: instancePriceJSON,
	})

	catalog, err := source.FetchCatalog(context.Background(), "us-west-1")
	require.NoError(t, err)
	require.Equal(t, []instance.Raw{
		{
			InstanceType: "ecs.gn6i-c4g1.xlarge",
			VCPUs:        4,
			Memory:       15,
			MemoryUnit:   normalize.GiB,
			GPUType:      "NVIDIA T4",
			GPUCount:     1,
			Quotes:       instance.Quotes{OnDemand: ptr.To(1.2)},
			Attributes:   map[string]string{AttributePriceKey: "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::linux::optimized"},
		},
		{
			InstanceType: "ecs.gn7i-c8g1.2xlarge",
			VCPUs:        8,
			Memory:       30,
			MemoryUnit:   normalize.GiB,
			GPUType:      "NVIDIA A10",
			GPUCount:     1,
			Quotes:       instance.Quotes{OnDemand: ptr.To(2.3)},
			Attributes:   map[string]string{AttributePriceKey: "us-west-1::ecs.gn7i-c8g1.2xlarge::vpc::linux::optimized"},
		},
		{
			InstanceType: "ecs.sgn7i-vws-m2.xlarge",
			VCPUs:        4,
			Memory:       15.5,
			MemoryUnit:   normalize.GiB,
			GPUType:      "NVIDIA A10",
			GPUCount:     0.25,
			Attributes:   map[string]string{AttributePriceKey: "us-west-1::ecs.sgn7i-vws-m2.xlarge::vpc::linux::optimized"},
		},
	}, catalog)
}

func TestSource_FetchCatalogSkipsUnpricedKeys(t *testing.T) {
	source := newTestSource(t, map[string]string{
		typesPath: `[{"InstanceTypeId": "ecs.gn6i-c4g1.xlarge", "CpuCoreCount": 4, "MemorySize": 15, "GPUSpec": "NVIDIA T4", "GPUAmount": 1}]`,
		pricesPath: `{"pricingInfo": {
  "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::linux::a": {"hours": []},
  "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::linux::optimized": {"hours": [{"price": "1.2"}]}
}}`,
	})

	catalog, err := source.FetchCatalog(context.Background(), "us-west-1")
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	require.Equal(t, ptr.To(1.2), catalog[0].Quotes.OnDemand)
	require.Equal(t, "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::linux::optimized", catalog[0].Attributes[AttributePriceKey])
}

func TestSource_FetchCatalogErrors(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "missing definition file",
			files: map[string]string{pricesPath: instancePriceJSON},
		},
		{
			name:  "missing price file",
			files: map[string]string{typesPath: instanceTypesJS},
		},
		{
			name:  "unrepairable definition file",
			files: map[string]string{typesPath: "var items = [{", pricesPath: instancePriceJSON},
		},
		{
			name:  "malformed price file",
			files: map[string]string{typesPath: instanceTypesJS, pricesPath: "{"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := newTestSource(t, tc.files)

			_, err := source.FetchCatalog(context.Background(), "us-west-1")
			require.Error(t, err)
		})
	}
}

func TestSource_MissingFileIsNotExist(t *testing.T) {
	source := newTestSource(t, map[string]string{typesPath: instanceTypesJS})

	_, err := source.FetchCatalog(context.Background(), "us-west-1")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_ThroughAdapter(t *testing.T) {
	source := newTestSource(t, map[string]string{
		typesPath:  instanceTypesJS,
		pricesPath: instancePriceJSON,
	})
	adapter := provider.NewAdapter(source, normalize.GiBConvention, ratelimit.None(), logger.NewLogger(zapcore.DebugLevel))

	rows := adapter.GetStandardizedGPUInstances(context.Background(), "us-west-1")
	require.Len(t, rows, 3)
	require.Equal(t, instance.Standardized{
		Provider:        instance.Alibaba,
		Region:          "us-west-1",
		InstanceType:    "ecs.gn6i-c4g1.xlarge",
		VCPUs:           4,
		MemoryGB:        15,
		GPUType:         "NVIDIA T4",
		GPUCount:        1,
		OnDemandPerHour: ptr.To(1.2),
	}, rows[0])
	require.Nil(t, rows[2].OnDemandPerHour)
	require.Nil(t, rows[2].SpotPerHour)

	// a region without prices has no rows
	require.Empty(t, adapter.GetStandardizedGPUInstances(context.Background(), "eu-central-1"))
}

func TestMatchPriceKey(t *testing.T) {
	testCases := []struct {
		key      string
		wantType string
		wantOK   bool
	}{
		{key: "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::linux::optimized", wantType: "ecs.gn6i-c4g1.xlarge", wantOK: true},
		{key: "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::linux", wantType: "ecs.gn6i-c4g1.xlarge", wantOK: true},
		{key: "us-west-1::ecs.gn6i-c4g1.xlarge::vpc::windows::optimized"},
		{key: "us-west-1::ecs.gn6i-c4g1.xlarge::classic::linux"},
		{key: "us-east-1::ecs.gn6i-c4g1.xlarge::vpc::linux"},
		{key: "us-west-1"},
		{key: "us-west-1::::vpc::linux"},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			instanceType, ok := matchPriceKey(tc.key, "us-west-1")
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantType, instanceType)
		})
	}
}
