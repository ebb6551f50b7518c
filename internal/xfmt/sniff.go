package xfmt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/scar-format/scar/internal/sutil"
)

// sniffWindow is the number of trailing bytes Guess inspects.
const sniffWindow = 128

// Guess implements guess_decompressor (spec.md §4.1): it reads up to the
// last 128 bytes of source (all of it, if shorter) and returns the first
// factory, tried in [Factories] order, whose eof_marker is a suffix of
// that window.
func Guess(source io.ReaderAt, size int64) (Factory, error) {
	n := int64(sniffWindow)
	if size < n {
		n = size
	}
	buf := make([]byte, n)
	if _, err := source.ReadAt(buf, size-n); err != nil && err != io.EOF {
		return nil, err
	}
	for _, f := range Factories() {
		marker, err := f.EOFMarker()
		if err != nil {
			return nil, err
		}
		if bytes.HasSuffix(buf, marker) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("xfmt: Found no known end marker")
}

// FindTailMagic locates the rightmost occurrence of f.Magic() within
// window, the trailing bytes read for tail discovery (spec.md §4.4). It
// returns the offset within window, or -1 if absent.
func FindTailMagic(window []byte, f Factory) int {
	return sutil.LastIndex(window, f.Magic())
}

// FindTailMagicBefore retreats to the next-earlier occurrence of f.Magic()
// lying wholly within window[:at], used when a candidate tail member fails
// to decode.
func FindTailMagicBefore(window []byte, f Factory, at int) int {
	return sutil.LastIndexBefore(window, f.Magic(), at)
}
