package dataset

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BrandName derives a display name from a brand table's file name.
func (m *Manifest) BrandName(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
	for _, s := range m.NameStrip {
		name = strings.ReplaceAll(name, s, "")
	}
	name = strings.TrimSpace(name)

	for _, r := range m.BrandNames {
		if r.Match(name) {
			return r.To
		}
	}

	// Casers are stateful; one per call.
	caser := cases.Title(language.Und)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// BrandKey derives the lower-case key used for colors and grouping.
func (m *Manifest) BrandKey(filename string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(m.BrandName(filename)) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	key := b.String()
	for _, r := range m.BrandKeys {
		if r.Match(key) {
			return r.To
		}
	}
	return key
}
