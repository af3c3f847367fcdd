package security

import (
	"fmt"

	"github.com/distribution/reference"
)

// BaseImageChecker decides whether a container base image is outdated
type BaseImageChecker interface {
	IsOutdatedBaseImage(image string) bool
}

// NeverOutdated is a BaseImageChecker that treats every image as current
type NeverOutdated struct{}

// IsOutdatedBaseImage always returns false
func (NeverOutdated) IsOutdatedBaseImage(string) bool {
	return false
}

// ReferenceChecker flags base images that match a configured deny list.
// Entries are normalized image references. An entry with a tag or digest
// matches only that tag or digest; an entry without either matches every
// version of the repository.
type ReferenceChecker struct {
	// repository name -> tags/digests, empty set means all versions
	outdated map[string]map[string]struct{}
}

// NewReferenceChecker creates a checker from a list of image references
func NewReferenceChecker(images []string) (*ReferenceChecker, error) {
	c := &ReferenceChecker{outdated: make(map[string]map[string]struct{})}

	for _, image := range images {
		named, err := reference.ParseNormalizedNamed(image)
		if err != nil {
			return nil, fmt.Errorf("invalid outdated base image reference '%s': %w", image, err)
		}

		name := named.Name()
		versions, exists := c.outdated[name]
		if !exists {
			versions = make(map[string]struct{})
			c.outdated[name] = versions
		}

		if v := version(named); v != "" {
			versions[v] = struct{}{}
		} else {
			// Wildcard entry; narrower versions no longer matter
			c.outdated[name] = map[string]struct{}{"": {}}
		}
	}

	return c, nil
}

// IsOutdatedBaseImage reports whether image matches a deny list entry.
// Unparseable references are not judged outdated.
func (c *ReferenceChecker) IsOutdatedBaseImage(image string) bool {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return false
	}

	versions, exists := c.outdated[named.Name()]
	if !exists {
		return false
	}
	if _, all := versions[""]; all {
		return true
	}

	named = reference.TagNameOnly(named)
	if tagged, ok := named.(reference.Tagged); ok {
		if _, hit := versions[tagged.Tag()]; hit {
			return true
		}
	}
	if digested, ok := named.(reference.Digested); ok {
		if _, hit := versions[digested.Digest().String()]; hit {
			return true
		}
	}
	return false
}

func version(named reference.Named) string {
	if tagged, ok := named.(reference.Tagged); ok {
		return tagged.Tag()
	}
	if digested, ok := named.(reference.Digested); ok {
		return digested.Digest().String()
	}
	return ""
}
