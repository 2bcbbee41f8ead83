package azure

import "strings"

// armToPricingRegion maps ARM region names to the slugs of the pricing page feed.
var armToPricingRegion = map[string]string{
	"eastus":             "us-east",
	"eastus2":            "us-east-2",
	"centralus":          "us-central",
	"northcentralus":     "us-north-central",
	"southcentralus":     "us-south-central",
	"westcentralus":      "us-west-central",
	"westus":             "us-west",
	"westus2":            "us-west-2",
	"westus3":            "us-west-3",
	"canadacentral":      "canada-central",
	"canadaeast":         "canada-east",
	"brazilsouth":        "brazil-south",
	"northeurope":        "europe-north",
	"westeurope":         "europe-west",
	"uksouth":            "united-kingdom-south",
	"ukwest":             "united-kingdom-west",
	"francecentral":      "france-central",
	"germanywestcentral": "germany-west-central",
	"swedencentral":      "sweden-central",
	"switzerlandnorth":   "switzerland-north",
	"norwayeast":         "norway-east",
	"southeastasia":      "asia-pacific-southeast",
	"eastasia":           "asia-pacific-east",
	"japaneast":          "japan-east",
	"japanwest":          "japan-west",
	"koreacentral":       "korea-central",
	"centralindia":       "central-india",
	"southindia":         "south-india",
	"australiaeast":      "australia-east",
	"australiasoutheast": "australia-southeast",
	"uaenorth":           "uae-north",
	"southafricanorth":   "south-africa-north",
}

// PricingRegion returns the pricing feed slug of an ARM region name. Unknown names are passed through unchanged.
func PricingRegion(region string) string {
	if slug, ok := armToPricingRegion[strings.ToLower(strings.TrimSpace(region))]; ok {
		return slug
	}

	return region
}
