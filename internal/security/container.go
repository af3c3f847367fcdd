package security

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// ContainerManifestEvaluator checks container manifests for outdated base
// images and unapproved image sources
type ContainerManifestEvaluator struct {
	checker BaseImageChecker
	policy  *SourcePolicy
	now     func() time.Time
	logger  *logrus.Logger
}

// NewContainerManifestEvaluator creates a container manifest evaluator
func NewContainerManifestEvaluator(checker BaseImageChecker, policy *SourcePolicy, now func() time.Time, logger *logrus.Logger) *ContainerManifestEvaluator {
	if checker == nil {
		checker = NeverOutdated{}
	}
	if policy == nil {
		policy = NewSourcePolicy(nil)
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ContainerManifestEvaluator{checker: checker, policy: policy, now: now, logger: logger}
}

// Evaluate returns the alerts for a manifest: the base image check first,
// then one alert per unapproved source in listed order
func (e *ContainerManifestEvaluator) Evaluate(manifest models.ContainerManifest) ([]models.Alert, error) {
	alerts := make([]models.Alert, 0)

	if manifest.BaseImage != nil && e.checker.IsOutdatedBaseImage(*manifest.BaseImage) {
		alert, err := models.NewAlert(
			e.now(),
			models.SeverityHigh,
			models.CategoryContainer,
			fmt.Sprintf("Outdated base image detected: %s", *manifest.BaseImage),
			"Container Base Image",
			"Update to latest secure base image version",
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	for _, source := range manifest.ImageSources {
		if e.policy.IsApprovedSource(source) {
			continue
		}
		alert, err := models.NewAlert(
			e.now(),
			models.SeverityMedium,
			models.CategorySupplyChain,
			fmt.Sprintf("Unauthorized image source detected: %s", source),
			"Container Image Source",
			"Use only approved container registries",
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	e.logger.WithFields(logrus.Fields{
		"image_sources": len(manifest.ImageSources),
		"alert_count":   len(alerts),
	}).Debug("Evaluated container manifest")

	return alerts, nil
}
