package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGPUDescriptor(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *GPU
	}{
		{name: "integer count", text: "1X V100", want: &GPU{Type: "V100", Count: 1}},
		{name: "eight gpus", text: "8X A100", want: &GPU{Type: "A100", Count: 8}},
		{name: "lower case x with annotation", text: "8x A100 (NVlink)", want: &GPU{Type: "A100", Count: 8}},
		{name: "fraction", text: "1/2X A10", want: &GPU{Type: "A10", Count: 0.5}},
		{name: "fraction with spaces", text: " 1 / 3 X A10 ", want: &GPU{Type: "A10", Count: 1.0 / 3}},
		{name: "decimal count", text: "0.25X T4", want: &GPU{Type: "T4", Count: 0.25}},
		{name: "multi word name", text: "4X NVIDIA H100 80GB", want: &GPU{Type: "NVIDIA H100 80GB", Count: 4}},
		{name: "tencent separator", text: "1 * NVIDIA T4", want: &GPU{Type: "NVIDIA T4", Count: 1}},
		{name: "nested annotations", text: "2X MI25 (AMD) (beta)", want: &GPU{Type: "MI25", Count: 2}},
		{name: "empty", text: "", want: nil},
		{name: "blank", text: "   ", want: nil},
		{name: "no count", text: "A100", want: nil},
		{name: "no name", text: "8X ", want: nil},
		{name: "zero denominator", text: "1/0X A10", want: nil},
		{name: "only annotation", text: "1X (NVlink)", want: nil},
		{name: "garbage", text: "N/A", want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseGPUDescriptor(tc.text)
			if tc.want == nil {
				require.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			require.Equal(t, tc.want.Type, got.Type)
			require.InDelta(t, tc.want.Count, got.Count, 1e-9)
		})
	}
}
