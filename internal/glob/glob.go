// Package glob translates shell-style glob patterns into anchored regular
// expressions, the translation spec.md §4.5 defines for matching archive
// member paths.
package glob

import (
	"regexp"
	"strings"
)

// Compile translates pattern into an anchored [regexp.Regexp]. The result
// matches a path equal to pattern (optionally with a leading "./" or "/"
// and a trailing "/"), with `*` standing for one non-empty path segment and
// `**` for any run of characters, slashes included.
func Compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(translate(pattern))
}

// translate implements the rule set verbatim:
//   - a leading "./" or "/" is consumed; a bare leading "." maps to ".";
//   - "*" alone maps to [^/]+, "**" maps to .*;
//   - consecutive "/" collapse to one;
//   - each of []\|^$().? is emitted escaped;
//   - everything else passes through unchanged.
//
// The result is anchored with ^(?:\./|/)? at the start and /?$ at the end,
// so it matches both the literal path and, combined with a trailing "/*"
// pattern at the call site, everything nested under it as a directory.
func translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`^(?:\./|/)?`)

	s := pattern
	switch {
	case strings.HasPrefix(s, "./"):
		s = s[2:]
	case strings.HasPrefix(s, "/"):
		s = s[1:]
	}

	lastSlash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '*':
			if i+1 < len(s) && s[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]+")
			}
			lastSlash = false
		case '/':
			if lastSlash {
				continue
			}
			b.WriteByte('/')
			lastSlash = true
		case '[', ']', '\\', '|', '^', '$', '(', ')', '.', '?':
			b.WriteByte('\\')
			b.WriteByte(c)
			lastSlash = false
		default:
			b.WriteByte(c)
			lastSlash = false
		}
	}
	b.WriteString(`/?$`)
	return b.String()
}

// Listing returns the pattern pair (exact match, everything-nested-under
// match) a directory listing tries: G and G/*, per spec.md §4.5.
func Listing(pattern string) (exact, nested *regexp.Regexp, err error) {
	exact, err = Compile(pattern)
	if err != nil {
		return nil, nil, err
	}
	nested, err = Compile(strings.TrimSuffix(pattern, "/") + "/*")
	if err != nil {
		return nil, nil, err
	}
	return exact, nested, nil
}
