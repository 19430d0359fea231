// Package names canonicalizes free-text state and district names into
// comparable join keys.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TerritoryPrefix is the canonical federal-territory prefix produced by Display.
const TerritoryPrefix = "Wp "

// Key lowercases s and drops every rune that is not a letter or a digit.
// Decomposed accents are composed first.
func Key(s string) string {
	s = compose(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// JoinKey builds the composite "state|district" map key.
func JoinKey(state, district string) string {
	return Key(state) + "|" + Key(district)
}

// SplitKey is the inverse layout of JoinKey.
func SplitKey(key string) (state, district string) {
	state, district, _ = strings.Cut(key, "|")
	return state, district
}

// Display unifies federal-territory spellings for display and fallback
// matching. Periods are removed and a leading "WP", "W P" or "W.P."
// (any case) becomes "Wp ". The remainder is kept as written.
func Display(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	switch {
	case hasPrefixFold(s, "WP "):
		return TerritoryPrefix + strings.TrimSpace(s[3:])
	case hasPrefixFold(s, "W P "):
		return TerritoryPrefix + strings.TrimSpace(s[4:])
	case hasPrefixFold(s, "WP"):
		return TerritoryPrefix + strings.TrimSpace(s[2:])
	}
	return s
}

// IsTerritory reports whether s carries a federal-territory marker.
func IsTerritory(s string) bool {
	if strings.Contains(s, "Wp") || strings.Contains(s, "W.P.") {
		return true
	}
	return strings.HasPrefix(Display(s), TerritoryPrefix)
}

// StripTerritoryPrefix removes every "Wp ", "W.P. " and "WP " occurrence.
func StripTerritoryPrefix(s string) string {
	r := strings.NewReplacer("Wp ", "", "W.P. ", "", "WP ", "")
	return strings.TrimSpace(r.Replace(s))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// compose rewrites decomposed accents ("e" + U+0301) to their precomposed
// rune so both spellings give the same key. Accented letters stay distinct
// from their plain forms.
func compose(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return norm.NFC.String(s)
		}
	}
	return s
}
