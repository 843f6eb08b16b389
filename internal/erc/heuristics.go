package erc

import (
	"strings"

	"chipforge/internal/domain"
)

// Structural roles are inferred from explicit tags first (component type,
// pin bus role). The name-based fallbacks below only apply to untagged
// components, and every rule built on them reports warnings.

func hasTypeFold(c *domain.Component, types ...string) bool {
	for _, t := range types {
		if strings.EqualFold(c.Type, t) {
			return true
		}
	}
	return false
}

// taggedDecoder reports an explicit decoder tag
func taggedDecoder(c *domain.Component) bool {
	return hasTypeFold(c, domain.ComponentDecoder) || c.HasBusRole(domain.BusRoleDecoder)
}

// findDecoder returns the first tagged decoder, falling back to the first
// component whose type or name mentions "decoder"
func findDecoder(d *domain.Design) *domain.Component {
	for i := range d.Components {
		if taggedDecoder(&d.Components[i]) {
			return &d.Components[i]
		}
	}
	for i := range d.Components {
		c := &d.Components[i]
		if containsFold(c.Type, "decoder") || containsFold(c.Name, "decoder") {
			return c
		}
	}
	return nil
}

// isSubordinate reports whether a component responds on the bus: tagged as
// subordinate, or untagged with an HSEL input pin
func isSubordinate(c *domain.Component) bool {
	if hasTypeFold(c, domain.ComponentSubordinate, "slave") || c.HasBusRole(domain.BusRoleSubordinate) {
		return true
	}
	if hasTypeFold(c, domain.ComponentManager, "master", domain.ComponentDecoder, domain.ComponentMux) ||
		c.HasBusRole(domain.BusRoleManager) || c.HasBusRole(domain.BusRoleDecoder) || c.HasBusRole(domain.BusRoleMux) {
		return false
	}

	for _, p := range c.Pins {
		if p.Direction != domain.DirectionOut && hasPrefixFold(p.Name, selectPrefix) {
			return true
		}
	}
	return false
}

// looksActiveLow applies the n / _n suffix naming convention of active-low resets
func looksActiveLow(pinName string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(pinName)), "n")
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
