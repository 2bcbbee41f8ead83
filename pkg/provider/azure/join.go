package azure

import (
	"sort"
	"strings"

	"github.com/kyma-project/gpu-pricing-collector/pkg/normalize"
)

type priceIndex struct {
	exact map[string]offerPrice
	fuzzy map[string]offerPrice
}

func newPriceIndex(prices map[string]offerPrice) priceIndex {
	keys := make([]string, 0, len(prices))
	for key := range prices {
		keys = append(keys, key)
	}

	// the first key in lexical order owns a fuzzy key shared by several offers
	sort.Strings(keys)

	index := priceIndex{
		exact: make(map[string]offerPrice, len(prices)),
		fuzzy: make(map[string]offerPrice, len(prices)),
	}

	for _, key := range keys {
		index.exact[strings.ToLower(key)] = prices[key]

		fuzzyKey := normalize.SKUKey(key)
		if _, taken := index.fuzzy[fuzzyKey]; !taken && fuzzyKey != "" {
			index.fuzzy[fuzzyKey] = prices[key]
		}
	}

	return index
}

// lookup tries the variants of the offer key first and then those of the display name.
func (i priceIndex) lookup(offer, instanceName string) (offerPrice, bool) {
	for _, name := range []string{offer, instanceName} {
		for _, variant := range normalize.SKUKeyVariants(name) {
			if price, ok := i.exact[variant]; ok {
				return price, true
			}
		}
	}

	for _, name := range []string{offer, instanceName} {
		if name == "" {
			continue
		}

		if price, ok := i.fuzzy[normalize.SKUKey(name)]; ok {
			return price, true
		}
	}

	return offerPrice{}, false
}
