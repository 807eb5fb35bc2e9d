package matching

import "strings"

// complementaryRoles is the fixed networking lookup keyed by the requester's
// lowercased role.
var complementaryRoles = map[string][]string{
	"founder":         {"investor", "developer", "designer", "marketer", "mentor"},
	"co-founder":      {"investor", "developer", "designer", "marketer", "mentor"},
	"entrepreneur":    {"investor", "mentor", "developer", "designer"},
	"investor":        {"founder", "co-founder", "entrepreneur"},
	"angel investor":  {"founder", "co-founder", "entrepreneur"},
	"developer":       {"founder", "co-founder", "designer", "product manager"},
	"designer":        {"founder", "co-founder", "developer", "product manager"},
	"marketer":        {"founder", "co-founder", "entrepreneur"},
	"mentor":          {"founder", "co-founder", "entrepreneur"},
	"product manager": {"developer", "designer", "founder"},
}

// ComplementaryRoles returns the roles considered a good match for role.
// Unknown roles map to nil.
func ComplementaryRoles(role string) []string {
	roles := complementaryRoles[normalizeRole(role)]
	if len(roles) == 0 {
		return nil
	}
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

func isComplementary(requesterRole, candidateRole string) bool {
	c := normalizeRole(candidateRole)
	if c == "" {
		return false
	}
	for _, r := range complementaryRoles[normalizeRole(requesterRole)] {
		if r == c {
			return true
		}
	}
	return false
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
