package sutil

import "bytes"

// LastIndex returns the offset of the rightmost occurrence of sep in b, or
// -1 if sep does not occur. It backs tail discovery's search for the
// rightmost codec magic in the file's trailing window (spec.md §4.4) and
// the retry-on-decode-failure walk to the next-earlier occurrence.
func LastIndex(b, sep []byte) int {
	return bytes.LastIndex(b, sep)
}

// LastIndexBefore returns the offset of the rightmost occurrence of sep
// lying wholly within b[:at] (so it ends at or before at), or -1 if there
// is none. Tail discovery
// uses this to retreat to the next-earlier magic occurrence when a
// candidate tail member fails to decode.
func LastIndexBefore(b, sep []byte, at int) int {
	if at > len(b) {
		at = len(b)
	}
	return bytes.LastIndex(b[:at], sep)
}

// ParseUint parses a decimal, non-negative integer, returning ok=false
// (rather than an error) on anything that isn't all ASCII digits -- the
// tail pointer, index, and checkpoint table grammars (spec.md §6) all use
// bare decimal integers with no sign and no whitespace tolerance.
func ParseUint(s []byte) (v uint64, ok bool) {
	if len(s) == 0 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}
	return v, true
}
