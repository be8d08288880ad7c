package slug_test

import (
	"regexp"
	"strings"
	"testing"

	"storymagic/internal/slug"

	"github.com/stretchr/testify/assert"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestMake(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple title", "Der tapfere Roboter", "der-tapfere-roboter"},
		{"umlauts", "Märchen über Bären", "maerchen-ueber-baeren"},
		{"sharp s", "Die große Straße", "die-grosse-strasse"},
		{"punctuation stripped", "Hallo, Welt! (Teil 2)", "hallo-welt-teil-2"},
		{"whitespace runs", "Ein   Roboter \t lernt", "ein-roboter-lernt"},
		{"hyphen runs", "Gute--Nacht---Geschichte", "gute-nacht-geschichte"},
		{"boundary hyphens", "- Der Anfang -", "der-anfang"},
		{"empty", "", ""},
		{"only special chars", "!?§$%", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slug.Make(tc.in))
		})
	}
}

func TestMakeDeterministic(t *testing.T) {
	in := "Ein Drache namens Änni fliegt über die Stadt"
	first := slug.Make(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, slug.Make(in))
	}
}

func TestMakeOutputShape(t *testing.T) {
	inputs := []string{
		"Der tapfere Roboter",
		"Märchen", "  spaces  ", "UPPER case TITLE",
		strings.Repeat("ein sehr langer titel ", 20),
		"123 Zahlen am Anfang",
	}
	for _, in := range inputs {
		got := slug.Make(in)
		if got == "" {
			continue
		}
		assert.True(t, slugPattern.MatchString(got), "slug %q must match pattern", got)
		assert.LessOrEqual(t, len(got), slug.MaxLength)
	}
}

func TestMakeLengthCapDoesNotEndWithHyphen(t *testing.T) {
	// Force the cut to land inside a hyphen boundary.
	in := strings.Repeat("abcdefg ", 30)
	got := slug.Make(in)
	assert.LessOrEqual(t, len(got), slug.MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestForStoryFallback(t *testing.T) {
	assert.Equal(t, "der-tapfere-roboter", slug.ForStory("Der tapfere Roboter", "Ein Roboter", "Märchen"))
	// No title: character and story type form the base.
	assert.Equal(t, "ein-roboter-maerchen", slug.ForStory("", "Ein Roboter", "Märchen"))
}

func TestForCategory(t *testing.T) {
	assert.Equal(t, "gute-nacht-geschichte", slug.ForCategory("Gute-Nacht-Geschichte"))
	assert.Equal(t, "maerchen", slug.ForCategory("Märchen"))
}
