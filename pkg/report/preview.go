package report

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

// Preview renders the first n rows as a console table. n <= 0 renders nothing.
func Preview(w io.Writer, rows []instance.Standardized, n int) {
	if n <= 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(Header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range rows[:min(n, len(rows))] {
		table.Append(Format(row))
	}

	table.Render()
}
