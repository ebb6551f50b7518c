package ustar

import "errors"

// errNonOctal is returned internally when an octal field contains no
// parseable digits at all (as opposed to being merely tolerant of
// trailing junk).
var errNonOctal = errors.New("ustar: no octal digits found")

// parseOctal reads a NUL- or space-terminated octal number out of b.
//
// Per spec.md §4.2 ("Octal fields"): the reader stops at the first space or
// NUL and silently ignores non-octal bytes encountered before that -- it
// does not error out on them, it just doesn't let them contribute to the
// magnitude. This tolerance is a deliberate compatibility nod (spec.md §9's
// open question about block_read_octal); some archives in the wild rely on
// it.
func parseOctal(b []byte) (int64, error) {
	var (
		v    int64
		seen bool
	)
	for _, c := range b {
		if c == 0 || c == ' ' {
			break
		}
		if c < '0' || c > '7' {
			continue
		}
		v = v<<3 | int64(c-'0')
		seen = true
	}
	if !seen {
		return 0, errNonOctal
	}
	return v, nil
}

// formatOctal right-zero-pads v as base-8 digits into b, followed by a NUL,
// per spec.md §4.2. If v overflows the field it is reduced modulo 8^(len-1)
// rather than erroring -- the field is always written, never refused.
func formatOctal(b []byte, v int64) {
	n := len(b) - 1 // last byte reserved for NUL
	mod := int64(1)
	for i := 0; i < n; i++ {
		mod *= 8
	}
	if mod > 0 {
		v %= mod
	}
	if v < 0 {
		v += mod
	}
	for i := n - 1; i >= 0; i-- {
		b[i] = byte('0' + v%8)
		v /= 8
	}
	b[n] = 0
}

// parseSize decodes UST_SIZE, honoring the base-256 extension described in
// spec.md §4.2 ("Large size encoding"): if the high bit of the first byte is
// set, the remaining 95 bits (7 low bits of the first byte plus the
// following 11 bytes) are a big-endian unsigned integer.
func parseSize(b []byte) (int64, error) {
	if len(b) > 0 && b[0]&0x80 != 0 {
		var v int64
		v = int64(b[0] & 0x7f)
		for _, c := range b[1:] {
			v = v<<8 | int64(c)
		}
		return v, nil
	}
	return parseOctal(b)
}

// formatSize writes v into b, falling back to the base-256 encoding when v
// doesn't fit in the field's octal capacity.
func formatSize(b []byte, v int64) {
	max := int64(1)
	for i := 0; i < len(b)-1; i++ {
		max *= 8
	}
	if v < max {
		formatOctal(b, v)
		return
	}
	for i := len(b) - 1; i >= 1; i-- {
		b[i] = byte(v & 0xff)
		v >>= 8
	}
	b[0] = 0x80
}

// cstr trims a field down to its NUL-terminated (or full-length) content.
func cstr(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
