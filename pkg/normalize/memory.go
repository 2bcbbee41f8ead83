package normalize

import "fmt"

type MemoryUnit int

const (
	MiB MemoryUnit = iota
	GiB
	GB
)

func (u MemoryUnit) String() string {
	switch u {
	case MiB:
		return "MiB"
	case GiB:
		return "GiB"
	case GB:
		return "GB"
	}

	return fmt.Sprintf("MemoryUnit(%d)", int(u))
}

// MemoryConvention decides how a provider's raw memory value is reported in the "Memory (GB)" column.
// An adapter picks exactly one convention.
type MemoryConvention int

const (
	// GiBConvention reports binary gigabytes: MiB are divided by 1024, GiB are kept as they are.
	GiBConvention MemoryConvention = iota
	// DecimalGBConvention reports decimal gigabytes approximated as GiB * 1.074.
	DecimalGBConvention
)

// GiBToGB is the approximation of 2^30/10^9 used by the decimal convention.
const GiBToGB = 1.074

func (c MemoryConvention) String() string {
	switch c {
	case GiBConvention:
		return "GiB"
	case DecimalGBConvention:
		return "decimal-GB"
	}

	return fmt.Sprintf("MemoryConvention(%d)", int(c))
}

// Memory converts a raw memory value in the given unit into the value reported under the convention.
// Negative input is treated as unknown and returns 0.
func Memory(value float64, unit MemoryUnit, convention MemoryConvention) float64 {
	if value <= 0 {
		return 0
	}

	var gib float64

	switch unit {
	case MiB:
		gib = value / 1024
	case GiB:
		gib = value
	case GB:
		if convention == DecimalGBConvention {
			return value
		}

		gib = value / GiBToGB
	default:
		return 0
	}

	if convention == DecimalGBConvention {
		return gib * GiBToGB
	}

	return gib
}
