package normalize

import (
	"testing"

	"github.com/onsi/gomega"
)

func TestSKUKey(t *testing.T) {
	g := gomega.NewWithT(t)

	testCases := []struct {
		name string
		want string
	}{
		{name: "Standard_NC24ads_A100_v4", want: "nc24adsa1004"},
		{name: "linux-nc24ads-a100-v4-standard", want: "nc24adsa1004"},
		{name: "NC6s v3", want: "nc6s3"},
		{name: "linux-nc6sv3-standard", want: "nc6s3"},
		{name: "linux-nv6-lowpriority", want: "nv6"},
		{name: "NV12s v3", want: "nv12s3"},
		{name: "linux-nv12sv3-standard", want: "nv12s3"},
		{name: "Standard_NV36ads_A10_v5", want: "nv36adsa105"},
		{name: "nv6ads-a10-v5", want: "nv6adsa105"},
		{name: "Standard_NC24_v3", want: "nc243"},
		{name: "  ND96asr_v4  ", want: "nd96asr4"},
		{name: "", want: ""},
	}

	for _, tc := range testCases {
		g.Expect(SKUKey(tc.name)).To(gomega.Equal(tc.want), tc.name)
	}
}

func TestSKUKeyVariants(t *testing.T) {
	g := gomega.NewWithT(t)

	g.Expect(SKUKeyVariants("linux-nc6sv3-standard")).To(gomega.Equal([]string{
		"linux-nc6sv3-standard",
		"nc6sv3",
		"nc6s3",
	}))

	g.Expect(SKUKeyVariants("NC6s v3")).To(gomega.Equal([]string{
		"nc6s v3",
		"nc6s-v3",
		"nc6s3",
	}))

	g.Expect(SKUKeyVariants("   ")).To(gomega.BeEmpty())
}
