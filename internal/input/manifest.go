package input

import (
	"context"
	"encoding/json"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/sirupsen/logrus"
	"github.com/threatflux/supplyChainScannerGo/internal/models"
	"gopkg.in/yaml.v3"
)

// Manifest document kinds understood by ReadManifest
const (
	manifestKindPlain   = "plain"
	manifestKindOCI     = "oci"
	manifestKindCompose = "compose"
)

// ReadManifest reads a container manifest. Three document shapes are
// accepted: a plain manifest with optional baseImage and imageSources keys,
// an OCI image manifest, and a Compose file.
func (s *FileSource) ReadManifest(ctx context.Context, path string) (models.ContainerManifest, error) {
	content, err := readFile(ctx, path)
	if err != nil {
		return models.ContainerManifest{}, err
	}

	root, err := decodeMapping(path, content)
	if err != nil {
		return models.ContainerManifest{}, err
	}

	kind := manifestKind(root)
	s.logger.WithFields(logrus.Fields{
		"path": path,
		"kind": kind,
	}).Debug("Reading container manifest")

	switch kind {
	case manifestKindCompose:
		return parseComposeManifest(ctx, path, content)
	case manifestKindOCI:
		return parseOCIManifest(path, content)
	default:
		return parsePlainManifest(path, root)
	}
}

// mappingValue returns the value node for key in a mapping node. A repeated
// key resolves to its last value.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	var value *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			value = node.Content[i+1]
		}
	}
	return value
}

// manifestKind classifies a document. A mapping with a services key is a
// Compose file unless it also carries plain manifest keys.
func manifestKind(root *yaml.Node) string {
	if mappingValue(root, "services") != nil &&
		mappingValue(root, "baseImage") == nil && mappingValue(root, "imageSources") == nil {
		return manifestKindCompose
	}
	if mappingValue(root, "schemaVersion") != nil {
		if mt := mappingValue(root, "mediaType"); mt != nil && mt.Value == ocispec.MediaTypeImageManifest {
			return manifestKindOCI
		}
		if mappingValue(root, "layers") != nil {
			return manifestKindOCI
		}
	}
	return manifestKindPlain
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func isString(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!str"
}

func parsePlainManifest(path string, root *yaml.Node) (models.ContainerManifest, error) {
	var manifest models.ContainerManifest

	if node := mappingValue(root, "baseImage"); node != nil && !isNull(node) {
		if !isString(node) {
			return models.ContainerManifest{}, parseError(path, "baseImage must be a string")
		}
		image := node.Value
		manifest.BaseImage = &image
	}

	if node := mappingValue(root, "imageSources"); node != nil {
		if node.Kind != yaml.SequenceNode {
			return models.ContainerManifest{}, parseError(path, "imageSources must be an array")
		}
		manifest.ImageSources = make([]string, 0, len(node.Content))
		for i, item := range node.Content {
			if !isString(item) {
				return models.ContainerManifest{}, parseError(path, "imageSources[%d] must be a string", i)
			}
			manifest.ImageSources = append(manifest.ImageSources, item.Value)
		}
	}

	return manifest, nil
}

// parseOCIManifest takes the base image from the standard OCI annotation
func parseOCIManifest(path string, content []byte) (models.ContainerManifest, error) {
	var oci ocispec.Manifest
	if err := json.Unmarshal(content, &oci); err != nil {
		return models.ContainerManifest{}, parseError(path, "invalid OCI image manifest: %v", err)
	}

	var manifest models.ContainerManifest
	if base, ok := oci.Annotations[ocispec.AnnotationBaseImageName]; ok && base != "" {
		manifest.BaseImage = &base
	}
	return manifest, nil
}
