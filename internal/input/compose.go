package input

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
)

const defaultComposeProjectName = "supply_chain_scan"

// parseComposeManifest loads a Compose file and lists each service image as
// an image source, ordered by service name. Services without an image (build
// only) are skipped.
func parseComposeManifest(ctx context.Context, path string, content []byte) (models.ContainerManifest, error) {
	workingDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		workingDir = filepath.Dir(path)
	}

	configDetails := composetypes.ConfigDetails{
		WorkingDir: workingDir,
		ConfigFiles: []composetypes.ConfigFile{
			{
				Filename: path,
				Content:  content,
			},
		},
		Environment: map[string]string{},
	}

	projectName := SanitizeProjectName(filepath.Base(workingDir))
	project, err := loader.LoadWithContext(ctx, configDetails, func(o *loader.Options) {
		o.SetProjectName(projectName, true)
		o.SkipConsistencyCheck = true
		o.ResolvePaths = false
	})
	if err != nil {
		if ctx.Err() != nil {
			return models.ContainerManifest{}, ctx.Err()
		}
		return models.ContainerManifest{}, parseError(path, "invalid compose file: %v", err)
	}

	names := make([]string, 0, len(project.Services))
	for name := range project.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	manifest := models.ContainerManifest{ImageSources: make([]string, 0, len(names))}
	for _, name := range names {
		if image := project.Services[name].Image; image != "" {
			manifest.ImageSources = append(manifest.ImageSources, image)
		}
	}
	return manifest, nil
}

// SanitizeProjectName turns a directory name into a valid Compose project
// name: lower case letters, digits, dashes and underscores, starting with a
// letter or digit
func SanitizeProjectName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_':
			if sb.Len() > 0 {
				sb.WriteRune(r)
			}
		case r == ' ' || r == '.':
			if sb.Len() > 0 {
				sb.WriteRune('_')
			}
		}
	}
	if sb.Len() == 0 {
		return defaultComposeProjectName
	}
	return sb.String()
}
