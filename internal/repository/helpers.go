package repository

import "strings"

func clampLimit(limit, def, maxV int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxV {
		return maxV
	}
	return limit
}

// prefixed qualifies every column of a comma separated select list.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
