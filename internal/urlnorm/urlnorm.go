package urlnorm

import (
	"net/url"
	"strings"
)

// Normalize resolves href against base and returns the crawl key for the
// result: fragment removed and a single trailing slash trimmed. Query string,
// host case and explicit default ports are left untouched, so URLs differing
// only in those remain distinct keys.
//
// Surrounding whitespace and control characters are trimmed from href and
// tabs and newlines inside it are dropped, as browsers do for attribute
// values split across lines.
//
// Normalize never fails. When either input cannot be parsed the raw href is
// used and only the string-level cleanup is applied.
func Normalize(base, href string) string {
	return trimSlash(stripFragment(resolve(base, cleanHref(href))))
}

var dropNewlines = strings.NewReplacer("\t", "", "\r", "", "\n", "")

func cleanHref(href string) string {
	href = dropNewlines.Replace(href)
	return strings.TrimFunc(href, func(r rune) bool { return r <= ' ' })
}

func resolve(base, href string) string {
	if base == "" {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

func stripFragment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}

// trimSlash removes exactly one trailing '/'; "/a//" becomes "/a/".
func trimSlash(s string) string {
	return strings.TrimSuffix(s, "/")
}
