package env

import "time"

// Config contains the configurations which are controlled by the ENV vars.
type Config struct {
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// AWSPriceInterval is the minimum pause between two per-instance AWS pricing calls.
	AWSPriceInterval time.Duration `envconfig:"AWS_PRICE_INTERVAL" default:"500ms"`

	AzurePricingURL string `envconfig:"AZURE_PRICING_URL" default:"https://azure.microsoft.com/api/v3/pricing/virtual-machines"`

	GCPProject     string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	GCPAccessToken string `envconfig:"GOOGLE_OAUTH_ACCESS_TOKEN"`
	GCPAPIKey      string `envconfig:"GOOGLE_CLOUD_API_KEY"`
	GCPComputeURL  string `envconfig:"GCP_COMPUTE_URL" default:"https://compute.googleapis.com/compute/v1"`
	GCPBillingURL  string `envconfig:"GCP_BILLING_URL" default:"https://cloudbilling.googleapis.com/v1"`

	AlibabaInstanceTypesPath string `envconfig:"ALIBABA_INSTANCE_TYPES_PATH" default:"instanceTypeDefinition.js"`
	AlibabaPricePath         string `envconfig:"ALIBABA_PRICE_PATH" default:"instancePrice.json"`

	TencentAPIURL string `envconfig:"TENCENT_API_URL" default:"https://workbench.tencentcloud.com/cgi/api"`
}
