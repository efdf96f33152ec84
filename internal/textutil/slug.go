// Package textutil provides text normalization helpers shared by the
// enrichment matcher and the importer.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes and strips combining marks, so å/ä/ö/é fold to their
// base letters.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug normalizes text for fuzzy equality comparison and cache keys:
// diacritics folded, lowercased, runs of anything non-alphanumeric collapsed
// to a single dash. The enrichment matcher uses the same routine for cache
// keys and for candidate comparison, so the two can never disagree.
func Slug(text string) string {
	folded, _, err := transform.String(foldMarks, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// TruncateSlug bounds a slug to max bytes. Cache keys double as file names,
// which are limited to 255 bytes on common filesystems.
func TruncateSlug(slug string, max int) string {
	if len(slug) <= max {
		return slug
	}
	return strings.TrimSuffix(slug[:max], "-")
}
