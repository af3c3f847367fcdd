package models

// ContainerManifest is a parsed container manifest document. Both fields
// are optional; a nil BaseImage means the key was absent.
type ContainerManifest struct {
	BaseImage    *string  `json:"baseImage,omitempty" yaml:"baseImage,omitempty"`
	ImageSources []string `json:"imageSources,omitempty" yaml:"imageSources,omitempty"`
}

// Dependency is one package/version pair of a dependency map
type Dependency struct {
	Package string `json:"package"`
	Version string `json:"version"`
}

// DependencyMap is a dependency declaration in its original key order
type DependencyMap []Dependency

// Get returns the version declared for pkg
func (m DependencyMap) Get(pkg string) (string, bool) {
	for _, d := range m {
		if d.Package == pkg {
			return d.Version, true
		}
	}
	return "", false
}
