// Package report renders the session alert collection as a text report and
// persists it.
package report

import (
	"fmt"
	"strings"

	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// Title is the first line of every report
const Title = "Supply Chain Security Scan Report"

var (
	headerRule = strings.Repeat("=", 30)
	blockRule  = strings.Repeat("-", 30)
)

// Generate renders alerts as a text report: a summary of counts per
// severity followed by one block per alert in collection order. It fails
// only when an alert is malformed.
func Generate(alerts []models.Alert) (string, error) {
	for i, alert := range alerts {
		if err := alert.Validate(); err != nil {
			return "", fmt.Errorf("alert %d: %w", i, err)
		}
	}

	summary := models.Summarize(alerts)

	lines := []string{Title, headerRule, ""}

	lines = append(lines, "Summary:")
	for _, sev := range models.Severities() {
		lines = append(lines, fmt.Sprintf("- %s severity alerts: %d", sev, summary.Count(sev)))
	}

	lines = append(lines, "\nDetailed Alerts:")
	for _, alert := range alerts {
		lines = append(lines,
			"\nTimestamp: "+alert.TimestampString(),
			"Severity: "+alert.Severity.String(),
			"Category: "+alert.Category,
			"Description: "+alert.Description,
			"Affected Component: "+alert.AffectedComponent,
			"Recommendation: "+alert.Recommendation,
			blockRule,
		)
	}

	return strings.Join(lines, "\n"), nil
}
