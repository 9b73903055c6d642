package shared

import (
	"sort"
	"strings"
)

// Capability is a named permission tag granted to an operator.
// Capabilities are checked by set membership rather than flag arithmetic,
// so new tags can be introduced without renumbering existing grants.
type Capability string

const (
	CapabilityAdmin     Capability = "admin"
	CapabilityManager   Capability = "manager"
	CapabilityCashier   Capability = "cashier"
	CapabilityLogistics Capability = "logistics"
)

// IsValid checks if the capability is a known tag
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityAdmin, CapabilityManager, CapabilityCashier, CapabilityLogistics:
		return true
	}
	return false
}

// String returns the string representation of the capability
func (c Capability) String() string {
	return string(c)
}

// CapabilitySet is an unordered set of capability tags
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet creates a set from the given tags, ignoring unknown ones
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		if c.IsValid() {
			set[c] = struct{}{}
		}
	}
	return set
}

// ParseCapabilitySet parses a comma-separated capability list, as carried
// in token claims. Unknown tags are dropped rather than rejected so that
// tokens issued by a newer identity service remain usable.
func ParseCapabilitySet(s string) CapabilitySet {
	set := make(CapabilitySet)
	for _, part := range strings.Split(s, ",") {
		c := Capability(strings.TrimSpace(strings.ToLower(part)))
		if c.IsValid() {
			set[c] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set contains the capability.
// An admin implicitly holds every capability.
func (s CapabilitySet) Has(c Capability) bool {
	if _, ok := s[CapabilityAdmin]; ok {
		return true
	}
	_, ok := s[c]
	return ok
}

// HasAny reports whether the set contains at least one of the capabilities
func (s CapabilitySet) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// Add returns the set with the capability included
func (s CapabilitySet) Add(c Capability) CapabilitySet {
	if c.IsValid() {
		s[c] = struct{}{}
	}
	return s
}

// String returns a stable comma-separated representation
func (s CapabilitySet) String() string {
	tags := make([]string, 0, len(s))
	for c := range s {
		tags = append(tags, string(c))
	}
	sort.Strings(tags)
	return strings.Join(tags, ",")
}
