package security

import (
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// networkRule pairs a pattern with the label used in its alert
type networkRule struct {
	pattern *regexp.Regexp
	label   string
}

// Rules are applied to every line in this order
var networkRules = []networkRule{
	// Octet values are not range checked, so 999.999.999.999 matches too
	{pattern: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), label: "Suspicious IP address"},
	{pattern: regexp.MustCompile(`(wget|curl)\s+http`), label: "Unauthorized download attempt"},
	{pattern: regexp.MustCompile(`(\\x[0-9a-fA-F]{2}){4,}`), label: "Potential shellcode detected"},
}

// NetworkLogEvaluator scans network log lines for suspicious activity
type NetworkLogEvaluator struct {
	now    func() time.Time
	logger *logrus.Logger
}

// NewNetworkLogEvaluator creates a network log evaluator
func NewNetworkLogEvaluator(now func() time.Time, logger *logrus.Logger) *NetworkLogEvaluator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &NetworkLogEvaluator{now: now, logger: logger}
}

// Evaluate emits at most one alert per (line, rule) pair
func (e *NetworkLogEvaluator) Evaluate(lines []string) ([]models.Alert, error) {
	alerts := make([]models.Alert, 0)

	for _, line := range lines {
		for _, rule := range networkRules {
			if !rule.pattern.MatchString(line) {
				continue
			}
			alert, err := models.NewAlert(
				e.now(),
				models.SeverityHigh,
				models.CategoryNetwork,
				rule.label+" detected",
				"Network Traffic",
				"Investigate suspicious network activity",
			)
			if err != nil {
				return nil, err
			}
			alerts = append(alerts, alert)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"lines":       len(lines),
		"alert_count": len(alerts),
	}).Debug("Evaluated network log")

	return alerts, nil
}
