package security

import (
	"context"

	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

// VulnerabilityLookup queries a vulnerability source for a package version
type VulnerabilityLookup interface {
	Lookup(ctx context.Context, pkg, version string) ([]models.Vulnerability, error)
}

// NoopLookup is a VulnerabilityLookup with no data; it never reports anything
type NoopLookup struct{}

// Lookup always returns no vulnerabilities
func (NoopLookup) Lookup(context.Context, string, string) ([]models.Vulnerability, error) {
	return nil, nil
}

// Advisories maps package name -> version -> known vulnerabilities
type Advisories map[string]map[string][]models.Vulnerability

// StaticLookup serves vulnerabilities from an in-memory advisory set
type StaticLookup struct {
	advisories Advisories
}

// NewStaticLookup creates a lookup backed by advisories
func NewStaticLookup(advisories Advisories) *StaticLookup {
	if advisories == nil {
		advisories = Advisories{}
	}
	return &StaticLookup{advisories: advisories}
}

// Lookup returns the advisories recorded for pkg at version
func (l *StaticLookup) Lookup(_ context.Context, pkg, version string) ([]models.Vulnerability, error) {
	versions, ok := l.advisories[pkg]
	if !ok {
		return nil, nil
	}
	vulns := versions[version]
	out := make([]models.Vulnerability, len(vulns))
	copy(out, vulns)
	return out, nil
}
