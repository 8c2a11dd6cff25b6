// Package normalize provides canonical forms for shared catalog entities.
// Tags and ingredients are deduplicated on their normalized name, so every
// write path must normalize before lookup or insert.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// Matches runs of inner whitespace (for collapsing).
	innerSpaceRe = regexp.MustCompile(`\s+`)
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// Name converts user input to the canonical catalog name.
// The normalized name is the identity used for case-insensitive dedup.
//
// Normalization rules:
//  1. Trim whitespace and lowercase
//  2. Collapse runs of inner whitespace to a single space
//
// Examples:
//
//	"Comfort Food"   → "comfort food"
//	"  olive   OIL " → "olive oil"
func Name(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	return innerSpaceRe.ReplaceAllString(s, " ")
}

// Slug converts user input to a canonical URL-safe slug.
//
// Normalization rules:
//  1. Trim whitespace and lowercase
//  2. Replace spaces and underscores with dashes
//  3. Remove non-alphanumeric characters (except dashes)
//  4. Collapse multiple dashes
//  5. Trim leading/trailing dashes
//
// Examples:
//
//	"Comfort Food"    → "comfort-food"
//	"comfort_food"    → "comfort-food"
//	"COMFORT-FOOD"    → "comfort-food"
//	"  multi   word " → "multi-word"
//	"--leading--"     → "leading"
func Slug(input string) string {
	// 1. Trim and lowercase
	s := strings.ToLower(strings.TrimSpace(input))

	// 2. Replace word separators (spaces, underscores, slashes) with dashes
	s = wordSeparatorRe.ReplaceAllString(s, "-")

	// 3. Remove non-alphanumeric (except dashes)
	s = nonAlphanumericRe.ReplaceAllString(s, "")

	// 4. Collapse multiple dashes
	s = multipleDashRe.ReplaceAllString(s, "-")

	// 5. Trim leading/trailing dashes
	s = strings.Trim(s, "-")

	return s
}
