package cache

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugFolder strips diacritics so "Café del Mar" and "Cafe del Mar"
// derive the same key.
var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives the deterministic cache/storage key for a target:
// diacritics folded, lowercased, non-alphanumerics collapsed to single
// hyphens. The city is appended when present so same-named entities in
// different localities do not collide.
func Slug(name, city string) string {
	s := name
	if city != "" {
		s += " " + city
	}

	if folded, _, err := transform.String(slugFolder, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
