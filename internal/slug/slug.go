// Package slug derives URL-safe identifiers from free-text titles and
// category labels. Both the story slug and the category path segment must go
// through the same pipeline so that catalog URLs and generation-time URLs
// stay consistent.
package slug

import (
	"regexp"
	"strings"
)

// MaxLength caps generated story slugs.
const MaxLength = 80

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// umlauts transliterates German characters to their ASCII digraphs before
// the invalid-character strip, so "Märchen" becomes "maerchen" and not
// "mrchen".
var umlauts = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// Make normalizes text into a slug: lowercase, transliterate umlauts, strip
// everything outside [a-z0-9\s-], collapse whitespace and hyphen runs to a
// single hyphen, trim boundary hyphens and cap the length. Deterministic and
// safe for concurrent use.
func Make(text string) string {
	s := strings.ToLower(text)
	s = umlauts.Replace(s)
	s = invalidChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLength {
		s = s[:MaxLength]
		s = strings.TrimRight(s, "-")
	}
	return s
}

// ForStory builds the story slug from the title, falling back to character
// and story type when no title was generated.
func ForStory(title, character, storyType string) string {
	base := title
	if base == "" {
		base = character + " " + storyType
	}
	return Make(base)
}

// ForCategory builds the catalog path segment from a story-type label.
func ForCategory(storyType string) string {
	return Make(storyType)
}
