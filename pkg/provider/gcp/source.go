// Package gcp collects accelerator-optimized machine types from the Compute Engine API and prices them from the
// Cloud Billing catalog.
//
// Machine types are listed for zone <region>-b. Every attached accelerator becomes its own catalog record. Memory is
// given in MiB and reported with the GiB convention.
package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kyma-project/gpu-pricing-collector/pkg/httpclient"
	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
)

const (
	// ComputeServiceID is the Cloud Billing service of Compute Engine.
	ComputeServiceID = "6F81-5844-456A"

	zoneSuffix = "-b"

	machineTypesPathFormat = "%s/projects/%s/zones/%s/machineTypes"
	skusPathFormat         = "%s/services/%s/skus"

	apiKeyHeader = "X-Goog-Api-Key"

	AttributeZone = "zone"
)

var ErrMissingProject = errors.New("GCP project is not configured")

type Config struct {
	Project     string
	AccessToken string
	APIKey      string
	ComputeURL  string
	BillingURL  string
}

type machineTypeList struct {
	Items         []machineType `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

type machineType struct {
	Name         string        `json:"name"`
	GuestCPUs    int           `json:"guestCpus"`
	MemoryMB     float64       `json:"memoryMb"`
	Accelerators []accelerator `json:"accelerators"`
}

type accelerator struct {
	GuestAcceleratorType  string `json:"guestAcceleratorType"`
	GuestAcceleratorCount int    `json:"guestAcceleratorCount"`
}

type Source struct {
	client *httpclient.Client
	config Config
	logger *zap.SugaredLogger
}

var _ provider.Source = &Source{}

func NewSource(client *httpclient.Client, config Config, logger *zap.SugaredLogger) *Source {
	config.ComputeURL = strings.TrimSuffix(config.ComputeURL, "/")
	config.BillingURL = strings.TrimSuffix(config.BillingURL, "/")

	return &Source{
		client: client,
		config: config,
		logger: logger,
	}
}

func (s *Source) ID() instance.Provider {
	return instance.GCP
}

// FetchCatalog lists the machine types with accelerators and prices them against one download of the SKU catalog.
func (s *Source) FetchCatalog(ctx context.Context, region string) ([]instance.Raw, error) {
	if s.config.Project == "" {
		return nil, ErrMissingProject
	}

	zone := region + zoneSuffix

	machineTypes, err := s.listMachineTypes(ctx, zone)
	if err != nil {
		return nil, err
	}

	var catalog []instance.Raw

	for _, mt := range machineTypes {
		for _, acc := range mt.Accelerators {
			catalog = append(catalog, instance.Raw{
				InstanceType: mt.Name,
				VCPUs:        mt.GuestCPUs,
				Memory:       mt.MemoryMB,
				MemoryUnit:   normalize.MiB,
				GPUType:      acceleratorName(acc.GuestAcceleratorType),
				GPUCount:     float64(acc.GuestAcceleratorCount),
				Attributes:   map[string]string{AttributeZone: zone},
			})
		}
	}

	if len(catalog) == 0 {
		return nil, nil
	}

	skus, err := s.listSKUs(ctx)
	if err != nil {
		// machine types are still reported, their prices are unknown
		s.namedLogger(region).With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).
			Warn("listing billing SKUs")

		return catalog, nil
	}

	s.namedLogger(region).With(log.KeyCount, len(skus)).Debug("listed billing SKUs")

	for i := range catalog {
		catalog[i].Quotes = priceMachine(skus, catalog[i].InstanceType, catalog[i].GPUType, catalog[i].GPUCount, region)
	}

	return catalog, nil
}

// FetchPrice returns the quotes resolved in FetchCatalog.
func (s *Source) FetchPrice(ctx context.Context, raw instance.Raw, region string) (instance.Quotes, error) {
	return raw.Quotes, nil
}

func (s *Source) listMachineTypes(ctx context.Context, zone string) ([]machineType, error) {
	var (
		result    []machineType
		pageToken string
	)

	headers := http.Header{}
	if s.config.AccessToken != "" {
		headers.Set("Authorization", "Bearer "+s.config.AccessToken)
	}

	for {
		query := url.Values{}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		endpoint := fmt.Sprintf(machineTypesPathFormat, s.config.ComputeURL, url.PathEscape(s.config.Project), url.PathEscape(zone))
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var page machineTypeList
		if err := s.client.GetJSON(ctx, endpoint, headers, &page); err != nil {
			return nil, fmt.Errorf("failed to list machine types in %s: %w", zone, err)
		}

		result = append(result, page.Items...)

		if page.NextPageToken == "" {
			return result, nil
		}

		pageToken = page.NextPageToken
	}
}

func (s *Source) listSKUs(ctx context.Context) ([]sku, error) {
	var (
		result    []sku
		pageToken string
	)

	headers := http.Header{}
	if s.config.APIKey != "" {
		headers.Set(apiKeyHeader, s.config.APIKey)
	}

	for {
		query := url.Values{}
		query.Set("currencyCode", "USD")

		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		endpoint := fmt.Sprintf(skusPathFormat, s.config.BillingURL, ComputeServiceID) + "?" + query.Encode()

		var page skuList
		if err := s.client.GetJSON(ctx, endpoint, headers, &page); err != nil {
			return nil, fmt.Errorf("failed to list billing SKUs: %w", err)
		}

		result = append(result, page.SKUs...)

		if page.NextPageToken == "" {
			return result, nil
		}

		pageToken = page.NextPageToken
	}
}

// acceleratorName strips the resource path from an accelerator type URL.
func acceleratorName(acceleratorType string) string {
	if i := strings.LastIndex(acceleratorType, "/"); i >= 0 {
		return acceleratorType[i+1:]
	}

	return acceleratorType
}

func (s *Source) namedLogger(region string) *zap.SugaredLogger {
	return s.logger.With("component", "gcp").With(log.KeyRegion, region)
}
