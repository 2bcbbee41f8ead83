package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// GPU is a parsed GPU descriptor. Count is fractional for shared GPUs ("1/2X A10").
type GPU struct {
	Type  string
	Count float64
}

// <count>[/<denominator>] <X|x|*> <name> [(annotation)]
var gpuDescriptorPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:/\s*(\d+))?\s*[xX*]\s+(.+)$`)

var trailingAnnotationPattern = regexp.MustCompile(`\s*\([^()]*\)\s*$`)

// ParseGPUDescriptor parses strings like "8X A100", "1/2X A10", "8x A100 (NVlink)" or "1 * V100".
// It returns nil for empty or malformed input.
func ParseGPUDescriptor(text string) *GPU {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	matches := gpuDescriptorPattern.FindStringSubmatch(text)
	if matches == nil {
		return nil
	}

	count, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil
	}

	if matches[2] != "" {
		denominator, err := strconv.ParseFloat(matches[2], 64)
		if err != nil || denominator == 0 {
			return nil
		}

		count /= denominator
	}

	name := matches[3]
	for trailingAnnotationPattern.MatchString(name) {
		name = trailingAnnotationPattern.ReplaceAllString(name, "")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	return &GPU{Type: name, Count: count}
}
