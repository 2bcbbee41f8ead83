// Package report sorts, formats and writes the comparison table.
package report

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

const (
	memoryPlaces = 1
	pricePlaces  = 4
)

// Header is the first line of every emitted table.
var Header = []string{
	"Provider",
	"Region",
	"Instance Type",
	"vCPUs",
	"Memory (GB)",
	"GPU Type",
	"GPU Count",
	"On-Demand Price ($/hr)",
	"Spot Price ($/hr)",
}

var ErrInvalidHeader = errors.New("invalid table header")

// Sort orders rows by provider, then instance type, ignoring case. Equal rows keep their order.
func Sort(rows []instance.Standardized) {
	slices.SortStableFunc(rows, func(a, b instance.Standardized) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Provider.String()), strings.ToLower(b.Provider.String())),
			cmp.Compare(strings.ToLower(a.InstanceType), strings.ToLower(b.InstanceType)),
		)
	})
}

// Format renders row in the column order of Header. Unknown prices are written as 0.0000.
func Format(row instance.Standardized) []string {
	return []string{
		row.Provider.String(),
		row.Region,
		row.InstanceType,
		strconv.Itoa(row.VCPUs),
		decimal.NewFromFloat(row.MemoryGB).StringFixed(memoryPlaces),
		row.GPUType,
		strconv.FormatFloat(row.GPUCount, 'f', -1, 64),
		formatPrice(row.OnDemandPerHour),
		formatPrice(row.SpotPerHour),
	}
}

func formatPrice(price *float64) string {
	if price == nil {
		return decimal.Zero.StringFixed(pricePlaces)
	}

	return decimal.NewFromFloat(*price).StringFixed(pricePlaces)
}

// WriteCSV writes the header and one line per row. An empty table is written as the header only.
func WriteCSV(w io.Writer, rows []instance.Standardized) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}

	for _, row := range rows {
		if err := cw.Write(Format(row)); err != nil {
			return fmt.Errorf("failed to write row %s/%s: %w", row.Provider, row.InstanceType, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Prices are read back as known values, 0.0000 included.
func ReadCSV(r io.Reader) ([]instance.Standardized, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}

	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, strings.Join(header, ","))
	}

	cr.FieldsPerRecord = len(Header)

	var rows []instance.Standardized

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read table: %w", err)
		}

		row, err := parse(record)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("failed to parse line %d: %w", line, err)
		}

		rows = append(rows, row)
	}
}

func parse(record []string) (instance.Standardized, error) {
	vcpus, err := strconv.Atoi(record[3])
	if err != nil {
		return instance.Standardized{}, fmt.Errorf("vCPUs: %w", err)
	}

	memory, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return instance.Standardized{}, fmt.Errorf("memory: %w", err)
	}

	gpuCount, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return instance.Standardized{}, fmt.Errorf("GPU count: %w", err)
	}

	onDemand, err := strconv.ParseFloat(record[7], 64)
	if err != nil {
		return instance.Standardized{}, fmt.Errorf("on-demand price: %w", err)
	}

	spot, err := strconv.ParseFloat(record[8], 64)
	if err != nil {
		return instance.Standardized{}, fmt.Errorf("spot price: %w", err)
	}

	return instance.Standardized{
		Provider:        instance.Provider(record[0]),
		Region:          record[1],
		InstanceType:    record[2],
		VCPUs:           vcpus,
		MemoryGB:        memory,
		GPUType:         record[5],
		GPUCount:        gpuCount,
		OnDemandPerHour: &onDemand,
		SpotPerHour:     &spot,
	}, nil
}
