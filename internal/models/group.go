package models

import "strings"

// Group is the service responsible for handling a point.
type Group string

const (
	GroupSecurity    Group = "Sécurité"
	GroupNature      Group = "Espace nature"
	GroupStage       Group = "Régie"
	GroupCleaning    Group = "Propreté"
	GroupMaintenance Group = "Maintenance"
	GroupCulture     Group = "Culture"
	GroupWelcome     Group = "Accueil"
	GroupMediation   Group = "Médiation"
	GroupCatering    Group = "Restauration"
	GroupShop        Group = "Boutique"
	GroupCommercial  Group = "Commercial"
	GroupOther       Group = "Autre"

	// GroupUnknown is the fallback for missing or unrecognised groups.
	GroupUnknown Group = "Ne sait pas"
)

var groups = []Group{
	GroupSecurity,
	GroupNature,
	GroupStage,
	GroupCleaning,
	GroupMaintenance,
	GroupCulture,
	GroupWelcome,
	GroupMediation,
	GroupCatering,
	GroupShop,
	GroupCommercial,
	GroupOther,
	GroupUnknown,
}

// Groups returns the fixed list of responsible groups in display order.
func Groups() []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	return out
}

// ParseGroup normalises free text to a known group. Matching ignores
// surrounding whitespace and letter case; unmatched input yields
// GroupUnknown.
func ParseGroup(s string) Group {
	s = strings.TrimSpace(s)
	for _, g := range groups {
		if string(g) == s {
			return g
		}
	}
	for _, g := range groups {
		if strings.EqualFold(string(g), s) {
			return g
		}
	}
	return GroupUnknown
}
