package taxonomy

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
	nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a URL-safe slug from a title. Accents are folded before
// stripping so "Été" becomes "ete" rather than "t".
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(foldAccents(title)))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DatedSlug prefixes slug with the day in YYYY-MM-DD form.
func DatedSlug(slug string, day time.Time) string {
	return day.Format("2006-01-02") + "-" + slug
}

// NormalizeSlug maps a free-form tag onto slug-safe form: lowercase, every
// non-alphanumeric run collapsed to one hyphen.
func NormalizeSlug(tag string) string {
	s := strings.ToLower(foldAccents(tag))
	s = nonAlnumRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeSlugs normalises every tag, dropping empties and repeats.
func NormalizeSlugs(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		s := NormalizeSlug(t)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
