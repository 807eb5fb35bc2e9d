package search

import (
	"strings"
	"unicode"
)

// MaxTerms bounds how many OR clauses a free-text query expands into.
const MaxTerms = 8

// NormalizeQuery lowercases input and collapses whitespace runs. Characters
// other than letters, digits and a few joiners used in role names are dropped.
func NormalizeQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	input = strings.ToLower(input)

	b := strings.Builder{}
	b.Grow(len(input))
	lastWasSpace := false

	for _, r := range input {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune("-+#.'", r):
			b.WriteRune(r)
			lastWasSpace = false
		case unicode.IsSpace(r):
			if b.Len() == 0 || lastWasSpace {
				continue
			}
			b.WriteByte(' ')
			lastWasSpace = true
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Terms splits a query into distinct whitespace separated terms. Each term is
// matched independently, so "fintech investor" matches either word.
func Terms(query string) []string {
	words := strings.Fields(NormalizeQuery(query))
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".'")
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == MaxTerms {
			break
		}
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching term anywhere.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
