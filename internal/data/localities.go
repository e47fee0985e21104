// Package data provides normalization helpers for locality names (cities,
// districts) so that spelling variants of the same place resolve to the same
// aggregate scope.
package data

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// CleanLocality trims and collapses whitespace in a locality name. It
// preserves case and accents; use it wherever a locality is stored or used
// as a lookup key so ingestion and analytics agree.
func CleanLocality(name string) string {
	return innerWhitespace.ReplaceAllString(strings.TrimSpace(name), " ")
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a locality name to a lowercase URL-safe slug: accents
// stripped, non-alphanumeric runs replaced with single hyphens.
func Slug(name string) string {
	s := removeAccents(strings.ToLower(CleanLocality(name)))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// removeAccents strips diacritical marks from a string.
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
