// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Alumni bios allow a small set of formatting tags. Direct messages allow no
// markup at all.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	bioPolicy   = newBioPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newBioPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "b", "i", "u", "ul", "ol", "li", "blockquote")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// Sanitize cleans bio HTML, keeping basic formatting and safe links.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(bioPolicy.Sanitize(s))
}

// PlainText strips every tag from s and returns the remaining text
// unescaped, so it is never longer than s. The result is not safe to
// embed in HTML as is.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}

// IsPlainText reports whether s contains no tags.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
