package main

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kyma-project/gpu-pricing-collector/env"
	"github.com/kyma-project/gpu-pricing-collector/pkg/collector"
	"github.com/kyma-project/gpu-pricing-collector/pkg/httpclient"
	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider/alibaba"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider/aws"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider/azure"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider/gcp"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider/tencent"
	"github.com/kyma-project/gpu-pricing-collector/pkg/ratelimit"
)

// newRegistry registers the five providers. Only AWS prices every instance with its own API call and is rate limited.
func newRegistry(cfg *env.Config, fs afero.Fs, logger *zap.SugaredLogger) *provider.Registry {
	registry := provider.NewRegistry()

	registry.Register(provider.NewAdapter(
		aws.NewSource(aws.NewSDKClientFactory(), logger),
		normalize.GiBConvention,
		ratelimit.NewInterval(cfg.AWSPriceInterval),
		logger,
	), "amazon")

	registry.Register(provider.NewAdapter(
		azure.NewSource(httpclient.NewClient("azure", cfg.HTTPTimeout, logger), cfg.AzurePricingURL, logger),
		normalize.GiBConvention,
		ratelimit.None(),
		logger,
	), "microsoft")

	registry.Register(provider.NewAdapter(
		gcp.NewSource(httpclient.NewClient("gcp", cfg.HTTPTimeout, logger), gcp.Config{
			Project:     cfg.GCPProject,
			AccessToken: cfg.GCPAccessToken,
			APIKey:      cfg.GCPAPIKey,
			ComputeURL:  cfg.GCPComputeURL,
			BillingURL:  cfg.GCPBillingURL,
		}, logger),
		normalize.GiBConvention,
		ratelimit.None(),
		logger,
	), "google")

	registry.Register(provider.NewAdapter(
		alibaba.NewSource(fs, cfg.AlibabaInstanceTypesPath, cfg.AlibabaPricePath, logger),
		normalize.GiBConvention,
		ratelimit.None(),
		logger,
	), "ali", "aliyun")

	registry.Register(provider.NewAdapter(
		tencent.NewSource(httpclient.NewClient("tencent", cfg.HTTPTimeout, logger), cfg.TencentAPIURL, logger),
		normalize.DecimalGBConvention,
		ratelimit.None(),
		logger,
	))

	return registry
}

// targetsGCP reports whether any target resolves to the GCP provider.
func targetsGCP(registry *provider.Registry, targets []collector.Target) bool {
	for _, t := range targets {
		if f, err := registry.Lookup(t.Provider); err == nil && f.ID() == instance.GCP {
			return true
		}
	}

	return false
}
