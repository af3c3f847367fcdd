package input

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
	"gopkg.in/yaml.v3"
)

// ReadDependencies reads a dependency map (package name -> version) keeping
// the key order of the file. Scalar versions such as 1.0 are kept as their
// literal text. A repeated key keeps its first position and its last value.
func (s *FileSource) ReadDependencies(ctx context.Context, path string) (models.DependencyMap, error) {
	content, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	root, err := decodeMapping(path, content)
	if err != nil {
		return nil, err
	}

	deps := make(models.DependencyMap, 0, len(root.Content)/2)
	index := make(map[string]int, len(root.Content)/2)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, parseError(path, "line %d: package name must be a string", key.Line)
		}
		if value.Kind != yaml.ScalarNode || isNull(value) {
			return nil, parseError(path, "line %d: version of %s must be a string", value.Line, key.Value)
		}

		if pos, seen := index[key.Value]; seen {
			deps[pos].Version = value.Value
			continue
		}
		index[key.Value] = len(deps)
		deps = append(deps, models.Dependency{Package: key.Value, Version: value.Value})
	}

	s.logger.WithFields(logrus.Fields{
		"path":     path,
		"packages": len(deps),
	}).Debug("Read dependency map")

	return deps, nil
}
