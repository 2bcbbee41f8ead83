package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	gpupctesting "github.com/kyma-project/gpu-pricing-collector/pkg/testing"
)

const header = "Provider,Region,Instance Type,vCPUs,Memory (GB),GPU Type,GPU Count,On-Demand Price ($/hr),Spot Price ($/hr)\n"

func TestSort(t *testing.T) {
	rows := []instance.Standardized{
		gpupctesting.NewRow(instance.Tencent, "GN7.2XLARGE32"),
		gpupctesting.NewRow(instance.AWS, "p3.2xlarge", gpupctesting.WithRegion("us-west-2")),
		gpupctesting.NewRow(instance.Azure, "nv6adsa10v5"),
		gpupctesting.NewRow(instance.AWS, "G4dn.xlarge"),
		gpupctesting.NewRow(instance.Azure, "NC6s v3"),
		gpupctesting.NewRow(instance.AWS, "p3.2xlarge", gpupctesting.WithRegion("us-east-1")),
		gpupctesting.NewRow(instance.Alibaba, "ecs.gn6i-c4g1.xlarge"),
	}

	Sort(rows)

	got := make([]string, 0, len(rows))
	for _, row := range rows {
		got = append(got, row.Provider.String()+"/"+row.InstanceType+"/"+row.Region)
	}

	require.Equal(t, []string{
		"Alibaba/ecs.gn6i-c4g1.xlarge/region-1",
		"AWS/G4dn.xlarge/region-1",
		"AWS/p3.2xlarge/us-west-2",
		"AWS/p3.2xlarge/us-east-1",
		"Azure/NC6s v3/region-1",
		"Azure/nv6adsa10v5/region-1",
		"Tencent/GN7.2XLARGE32/region-1",
	}, got)
}

func TestFormat(t *testing.T) {
	testCases := []struct {
		name string
		row  instance.Standardized
		want []string
	}{
		{
			name: "known prices",
			row: gpupctesting.NewRow(instance.AWS, "p3.2xlarge",
				gpupctesting.WithPrices(ptr.To(3.06), ptr.To(0.91834)), gpupctesting.WithGPU("V100", 1)),
			want: []string{"AWS", "region-1", "p3.2xlarge", "4", "16.0", "V100", "1", "3.0600", "0.9183"},
		},
		{
			name: "unknown prices",
			row:  gpupctesting.NewRow(instance.Tencent, "GN7.2XLARGE32"),
			want: []string{"Tencent", "region-1", "GN7.2XLARGE32", "4", "16.0", "T4", "1", "0.0000", "0.0000"},
		},
		{
			name: "zero price",
			row:  gpupctesting.NewRow(instance.AWS, "p5.48xlarge", gpupctesting.WithPrices(ptr.To(0.0), nil)),
			want: []string{"AWS", "region-1", "p5.48xlarge", "4", "16.0", "T4", "1", "0.0000", "0.0000"},
		},
		{
			name: "fractional GPU and rounding",
			row: instance.Standardized{
				Provider:        instance.Azure,
				Region:          "westus2",
				InstanceType:    "NV6ads A10 v5",
				VCPUs:           6,
				MemoryGB:        34.368,
				GPUType:         "A10",
				GPUCount:        1.0 / 6,
				OnDemandPerHour: ptr.To(0.45449),
				SpotPerHour:     ptr.To(0.00005),
			},
			want: []string{"Azure", "westus2", "NV6ads A10 v5", "6", "34.4", "A10", "0.16666666666666666", "0.4545", "0.0001"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Format(tc.row))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	t.Run("empty table has a header only", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, WriteCSV(&buf, nil))
		require.Equal(t, header, buf.String())
	})

	t.Run("fields are quoted only when needed", func(t *testing.T) {
		var buf bytes.Buffer

		rows := []instance.Standardized{
			gpupctesting.NewRow(instance.Azure, "NC6s v3", gpupctesting.WithPrices(ptr.To(3.06), ptr.To(0.612))),
			gpupctesting.NewRow(instance.AWS, "p4d.24xlarge", gpupctesting.WithGPU("A100, NVLink", 8)),
		}

		require.NoError(t, WriteCSV(&buf, rows))
		require.Equal(t, header+
			"Azure,region-1,NC6s v3,4,16.0,T4,1,3.0600,0.6120\n"+
			"AWS,region-1,p4d.24xlarge,4,16.0,\"A100, NVLink\",8,0.0000,0.0000\n", buf.String())
	})
}

func TestCSVRoundTrip(t *testing.T) {
	rows := []instance.Standardized{
		{
			Provider:        instance.GCP,
			Region:          "us-west1",
			InstanceType:    "a2-highgpu-1g",
			VCPUs:           12,
			MemoryGB:        85,
			GPUType:         "nvidia-tesla-a100",
			GPUCount:        1,
			OnDemandPerHour: ptr.To(4.17342),
			SpotPerHour:     ptr.To(1.3),
		},
		{
			Provider:     instance.Tencent,
			Region:       "na-siliconvalley",
			InstanceType: "GN7vw.2XLARGE32",
			VCPUs:        8,
			MemoryGB:     34.368,
			GPUType:      "NVIDIA T4",
			GPUCount:     0.5,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(rows))

	for i, row := range rows {
		require.Equal(t, row.Provider, got[i].Provider)
		require.Equal(t, row.Region, got[i].Region)
		require.Equal(t, row.InstanceType, got[i].InstanceType)
		require.Equal(t, row.VCPUs, got[i].VCPUs)
		require.InDelta(t, row.MemoryGB, got[i].MemoryGB, 0.05)
		require.Equal(t, row.GPUType, got[i].GPUType)
		require.Equal(t, row.GPUCount, got[i].GPUCount)
		require.InDelta(t, ptr.Deref(row.OnDemandPerHour, 0), *got[i].OnDemandPerHour, 0.00005)
		require.InDelta(t, ptr.Deref(row.SpotPerHour, 0), *got[i].SpotPerHour, 0.00005)

		// formatting is stable once rounded
		require.Equal(t, Format(row), Format(got[i]))
	}
}

func TestReadCSV_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "wrong header", input: "Provider,Region\n"},
		{name: "missing column", input: header + "AWS,us-west-2,p3.2xlarge,8,61.0,V100,1,3.0600\n"},
		{name: "bad number", input: header + "AWS,us-west-2,p3.2xlarge,eight,61.0,V100,1,3.0600,0.0000\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.input))
			require.Error(t, err)
		})
	}

	for _, input := range []string{
		"Provider,Region\n",
		"Region,Provider,Instance Type,vCPUs,Memory (GB),GPU Type,GPU Count,On-Demand Price ($/hr),Spot Price ($/hr)\n",
		strings.TrimSuffix(header, "\n") + ",Extra\n",
	} {
		_, err := ReadCSV(strings.NewReader(input))
		require.ErrorIs(t, err, ErrInvalidHeader, input)
	}
}

func TestPreview(t *testing.T) {
	rows := []instance.Standardized{
		gpupctesting.NewRow(instance.AWS, "p3.2xlarge", gpupctesting.WithPrices(ptr.To(3.06), nil)),
		gpupctesting.NewRow(instance.AWS, "p3.8xlarge"),
		gpupctesting.NewRow(instance.AWS, "p3.16xlarge"),
	}

	var buf bytes.Buffer
	Preview(&buf, rows, 2)

	out := buf.String()
	require.Contains(t, out, "On-Demand Price ($/hr)")
	require.Contains(t, out, "p3.2xlarge")
	require.Contains(t, out, "3.0600")
	require.Contains(t, out, "p3.8xlarge")
	require.NotContains(t, out, "p3.16xlarge")

	buf.Reset()
	Preview(&buf, rows, 0)
	require.Empty(t, buf.String())

	buf.Reset()
	Preview(&buf, rows, 10)
	require.Contains(t, buf.String(), "p3.16xlarge")
}
