// Package security implements the rule evaluators that turn container
// manifests, dependency maps and network logs into alerts.
package security

import (
	"strings"
)

// SourcePolicy decides whether an image source comes from an approved registry
type SourcePolicy struct {
	approved []string
}

// NewSourcePolicy creates a policy from a list of approved registry hosts or prefixes
func NewSourcePolicy(approved []string) *SourcePolicy {
	list := make([]string, 0, len(approved))
	for _, a := range approved {
		if a = strings.TrimSpace(a); a != "" {
			list = append(list, a)
		}
	}
	return &SourcePolicy{approved: list}
}

// IsApprovedSource reports whether source contains any approved entry.
// The match is a plain substring match and is not anchored.
func (p *SourcePolicy) IsApprovedSource(source string) bool {
	for _, approved := range p.approved {
		if strings.Contains(source, approved) {
			return true
		}
	}
	return false
}

// Approved returns a copy of the approved entries
func (p *SourcePolicy) Approved() []string {
	out := make([]string, len(p.approved))
	copy(out, p.approved)
	return out
}
