package report

import (
	"io"
	"strconv"

	tw "github.com/olekukonko/tablewriter"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// RenderSummaryTable writes the per-severity counts and the alert list as
// terminal tables
func RenderSummaryTable(w io.Writer, alerts []models.Alert) {
	summary := models.Summarize(alerts)

	counts := tw.NewWriter(w)
	counts.SetHeader([]string{"Severity", "Count"})
	counts.SetBorder(true)
	counts.SetAutoFormatHeaders(true)
	for _, sev := range models.Severities() {
		counts.Append([]string{sev.String(), strconv.Itoa(summary.Count(sev))})
	}
	counts.SetFooter([]string{"Total", strconv.Itoa(summary.TotalAlerts)})
	counts.Render()

	if len(alerts) == 0 {
		return
	}

	table := tw.NewWriter(w)
	table.SetHeader([]string{"Severity", "Category", "Affected Component", "Description"})
	table.SetHeaderLine(true)
	table.SetBorder(true)
	table.SetAutoWrapText(true)
	table.SetAutoFormatHeaders(true)
	table.SetColMinWidth(3, 40)
	for _, a := range alerts {
		table.Append([]string{a.Severity.String(), a.Category, a.AffectedComponent, a.Description})
	}
	table.Render()
}
