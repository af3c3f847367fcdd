package security

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// DependencyEvaluator checks declared package versions against a
// vulnerability lookup
type DependencyEvaluator struct {
	lookup VulnerabilityLookup
	now    func() time.Time
	logger *logrus.Logger
}

// NewDependencyEvaluator creates a dependency evaluator
func NewDependencyEvaluator(lookup VulnerabilityLookup, now func() time.Time, logger *logrus.Logger) *DependencyEvaluator {
	if lookup == nil {
		lookup = NoopLookup{}
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &DependencyEvaluator{lookup: lookup, now: now, logger: logger}
}

// Evaluate emits one alert per vulnerability record, in dependency order.
// A record with an unknown severity or missing safe version aborts the
// evaluation with an error.
func (e *DependencyEvaluator) Evaluate(ctx context.Context, deps models.DependencyMap) ([]models.Alert, error) {
	alerts := make([]models.Alert, 0)

	for _, dep := range deps {
		vulns, err := e.lookup.Lookup(ctx, dep.Package, dep.Version)
		if err != nil {
			return nil, fmt.Errorf("vulnerability lookup for %s@%s failed: %w", dep.Package, dep.Version, err)
		}

		for _, vuln := range vulns {
			if err := vuln.Validate(); err != nil {
				return nil, fmt.Errorf("package %s@%s: %w", dep.Package, dep.Version, err)
			}
			severity, err := models.ParseSeverity(vuln.Severity)
			if err != nil {
				return nil, fmt.Errorf("package %s@%s: %w", dep.Package, dep.Version, err)
			}

			alert, err := models.NewAlert(
				e.now(),
				severity,
				models.CategoryDependency,
				fmt.Sprintf("Vulnerability found in %s version %s", dep.Package, dep.Version),
				"Package: "+dep.Package,
				fmt.Sprintf("Upgrade to version %s", vuln.SafeVersion),
			)
			if err != nil {
				return nil, err
			}
			alerts = append(alerts, alert)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"packages":    len(deps),
		"alert_count": len(alerts),
	}).Debug("Evaluated dependencies")

	return alerts, nil
}
