package input

import (
	"context"
	"encoding/json"

	"github.com/threatflux/supplyChainScannerGo/internal/models"
	"github.com/threatflux/supplyChainScannerGo/internal/security"
)

// ReadAdvisories reads a local advisory file of the form
// {"package": {"version": [{"severity": "HIGH", "safe_version": "1.2.3"}]}}
// used to back a static vulnerability lookup
func ReadAdvisories(ctx context.Context, path string) (security.Advisories, error) {
	content, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string][]models.Vulnerability
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, parseError(path, "invalid advisory file: %v", err)
	}
	return security.Advisories(raw), nil
}
