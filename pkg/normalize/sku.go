package normalize

import (
	"regexp"
	"strings"
)

var (
	skuPrefixes = []string{"linux-", "windows-", "standard_", "standard-", "basic_", "basic-"}
	skuSuffixes = []string{"-standard", "-basic", "-lowpriority", "-spot"}

	// a version marker starts a token or follows the size: "_v4", " v3", "6sv3", "a100v4", not the "v" of "nv6"
	skuVersionPattern   = regexp.MustCompile(`(^|\s|\d[a-z]*)v(\d+)\b`)
	skuSeparatorPattern = regexp.MustCompile(`[\s_\-.]+`)
)

// SKUKey builds a fuzzy join key for instance names coming from two independently keyed feeds.
// The key is not meant to be shown to users.
//
// Version markers ending a token collapse to their number:
//
//	SKUKey("Standard_NC24ads_A100_v4") == SKUKey("linux-nc24ads-a100-v4-standard") == "nc24adsa1004"
//	SKUKey("NC6s v3") == SKUKey("linux-nc6sv3-standard") == "nc6s3"
//	SKUKey("linux-nv6-lowpriority") == "nv6"
func SKUKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))

	key = trimAffixes(key)
	key = skuSeparatorPattern.ReplaceAllString(key, " ")
	key = skuVersionPattern.ReplaceAllString(key, "${1}${2}")
	key = strings.ReplaceAll(key, " ", "")

	return key
}

// SKUKeyVariants returns the ordered lookup variants tried by a fuzzy join: the raw lower-cased name,
// the name without provider affixes, and finally the SKUKey. Duplicates are removed.
func SKUKeyVariants(name string) []string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil
	}

	candidates := []string{
		lower,
		trimAffixes(lower),
		strings.ReplaceAll(trimAffixes(lower), " ", "-"),
		SKUKey(lower),
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))

	for _, c := range candidates {
		if c == "" {
			continue
		}

		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}
		variants = append(variants, c)
	}

	return variants
}

func trimAffixes(key string) string {
	for _, p := range skuPrefixes {
		key = strings.TrimPrefix(key, p)
	}

	for _, s := range skuSuffixes {
		key = strings.TrimSuffix(key, s)
	}

	return key
}
