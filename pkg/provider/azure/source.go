// Package azure collects GPU virtual machine sizes and prices from the public Azure pricing page feeds.
//
// The details feed describes every offer, the per-region pricing feed quotes it. Both are keyed by offer slugs that do
// not always agree, so prices are joined through normalize.SKUKeyVariants. Memory is given in GiB and reported with the
// GiB convention.
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kyma-project/gpu-pricing-collector/pkg/httpclient"
	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider"
)

const (
	pricingPathFormat = "%s/page/linux/%s/"
	detailsPathFormat = "%s/page/details/linux/"

	// AttributeOffer is the feed key of the offer a catalog record was built from.
	AttributeOffer = "offer"
)

type offerDetails struct {
	InstanceName string  `json:"instanceName"`
	Cores        float64 `json:"cores"`
	RAM          float64 `json:"ram"`
	GPU          string  `json:"gpu"`
}

type detailsFeed struct {
	AttributesByOffer map[string]json.RawMessage `json:"attributesByOffer"`
}

type offerPrice struct {
	PerHour     *float64 `json:"perhour"`
	PerHourSpot *float64 `json:"perhourspot"`
}

type Source struct {
	client  *httpclient.Client
	baseURL string
	logger  *zap.SugaredLogger
}

var _ provider.Source = &Source{}

func NewSource(client *httpclient.Client, baseURL string, logger *zap.SugaredLogger) *Source {
	return &Source{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

func (s *Source) ID() instance.Provider {
	return instance.Azure
}

// FetchCatalog downloads both feeds and returns every offer with a GPU, quoted with the prices of the region.
func (s *Source) FetchCatalog(ctx context.Context, region string) ([]instance.Raw, error) {
	details, err := s.fetchDetails(ctx)
	if err != nil {
		return nil, err
	}

	prices, err := s.fetchPrices(ctx, region)
	if err != nil {
		return nil, err
	}

	index := newPriceIndex(prices)

	offers := make([]string, 0, len(details))
	for offer := range details {
		offers = append(offers, offer)
	}

	sort.Strings(offers)

	var (
		catalog  []instance.Raw
		unpriced int
	)

	for _, offer := range offers {
		d := details[offer]
		if strings.TrimSpace(d.GPU) == "" {
			continue
		}

		name := d.InstanceName
		if name == "" {
			name = strings.TrimSuffix(strings.TrimPrefix(offer, "linux-"), "-standard")
		}

		raw := instance.Raw{
			InstanceType:  name,
			VCPUs:         int(d.Cores),
			Memory:        d.RAM,
			MemoryUnit:    normalize.GiB,
			GPUDescriptor: d.GPU,
			Attributes:    map[string]string{AttributeOffer: offer},
		}

		if price, ok := index.lookup(offer, d.InstanceName); ok {
			raw.Quotes = instance.Quotes{OnDemand: price.PerHour, Spot: price.PerHourSpot}
		} else {
			unpriced++
		}

		catalog = append(catalog, raw)
	}

	s.namedLogger(region).With(log.KeyCount, len(catalog)).Debugf("%d GPU offers without a price in the region", unpriced)

	return catalog, nil
}

// FetchPrice returns the quotes joined in FetchCatalog. The feeds have no per-offer endpoint.
func (s *Source) FetchPrice(ctx context.Context, raw instance.Raw, region string) (instance.Quotes, error) {
	return raw.Quotes, nil
}

func (s *Source) fetchDetails(ctx context.Context) (map[string]offerDetails, error) {
	query := url.Values{}
	query.Set("culture", "en-us")
	query.Set("showLowPriorityOffers", "false")

	var feed detailsFeed
	if err := s.client.GetJSON(ctx, fmt.Sprintf(detailsPathFormat, s.baseURL)+"?"+query.Encode(), nil, &feed); err != nil {
		return nil, fmt.Errorf("failed to fetch Azure offer details: %w", err)
	}

	if len(feed.AttributesByOffer) == 0 {
		return nil, fmt.Errorf("azure details feed contains no offers")
	}

	details := make(map[string]offerDetails, len(feed.AttributesByOffer))

	for offer, value := range feed.AttributesByOffer {
		var d offerDetails
		if err := json.Unmarshal(value, &d); err != nil {
			s.logger.With("component", "azure").With(log.KeyError, err.Error()).Debugf("skipping malformed offer %q", offer)
			continue
		}

		details[offer] = d
	}

	return details, nil
}

func (s *Source) fetchPrices(ctx context.Context, region string) (map[string]offerPrice, error) {
	query := url.Values{}
	query.Set("showLowPriorityOffers", "false")

	var feed map[string]json.RawMessage

	pricingURL := fmt.Sprintf(pricingPathFormat, s.baseURL, url.PathEscape(PricingRegion(region))) + "?" + query.Encode()
	if err := s.client.GetJSON(ctx, pricingURL, nil, &feed); err != nil {
		return nil, fmt.Errorf("failed to fetch Azure prices for %s: %w", region, err)
	}

	prices := make(map[string]offerPrice, len(feed))

	for key, value := range feed {
		var price offerPrice
		if err := json.Unmarshal(value, &price); err != nil {
			// the feed mixes offers with metadata entries
			s.namedLogger(region).With(log.KeyError, err.Error()).Debugf("skipping pricing entry %q", key)
			continue
		}

		prices[key] = price
	}

	return prices, nil
}

func (s *Source) namedLogger(region string) *zap.SugaredLogger {
	return s.logger.With("component", "azure").With(log.KeyRegion, region)
}
