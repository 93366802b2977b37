// Package sanitize cleans free text taken from uploaded sheets and request bodies.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes markup, including tags that were entity-encoded.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return tagPattern.ReplaceAllString(s, "")
}

// Text strips markup and control characters other than newline and tab,
// drops stray byte order marks and trims surrounding whitespace.
func Text(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\uFEFF' || unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, StripHTML(s))
	return strings.TrimSpace(s)
}
