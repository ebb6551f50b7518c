// Package xfmt implements SCAR's compression plug-in abstraction (spec.md
// §4.1): a uniform [Factory] interface over gzip, xz, zstd, and an
// uncompressed "plain" codec, each able to start and finalize many
// independent members atop the same sink, and each able to report the exact
// trailing bytes ("eof marker") and leading bytes ("magic") that identify
// it.
package xfmt

import (
	"bytes"
	"io"
)

// Codec names one of the supported compression schemes.
type Codec string

// Supported codecs.
const (
	Gzip  Codec = "gzip"
	Xz    Codec = "xz"
	Zstd  Codec = "zstd"
	Plain Codec = "plain"
)

// Compressor accepts writes for one compressed member and, on [Finish],
// flushes its internal state, writes the codec's natural trailer, and
// returns the underlying sink so a fresh member can be started atop it
// (spec.md §4.1).
type Compressor interface {
	io.Writer
	Finish() (io.Writer, error)
}

// Decompressor decodes one compressed member's worth of bytes from an
// underlying source. Close releases any resources (e.g. zstd's background
// goroutines) without affecting the underlying source; callers should
// always call it once done with a member, even on the error path.
type Decompressor interface {
	io.Reader
	io.Closer
}

// Factory is a compressor/decompressor pair for one [Codec], plus the
// fixed byte sequences that identify it on the wire.
type Factory interface {
	Codec() Codec

	// CreateCompressor wraps sink in a fresh [Compressor].
	CreateCompressor(sink io.Writer) (Compressor, error)
	// CreateDecompressor wraps source in a fresh [Decompressor].
	CreateDecompressor(source io.Reader) (Decompressor, error)

	// EOFMarker is the exact bytes produced by compressing the literal
	// "SCAR-EOF\n" as a single standalone member at this factory's
	// reference settings (spec.md glossary, "EOF marker").
	EOFMarker() ([]byte, error)
	// Magic is the short leading byte sequence that begins every member
	// this codec writes. For the plain codec, which has no wire header, it
	// is the tail member's leading literal and begins only that member.
	Magic() []byte
}

// eofPayload is the fixed string every codec's eof_marker is computed from.
const eofPayload = "SCAR-EOF\n"

// Factories returns the four supported factories in sniffing-priority
// order: gzip, xz, zstd, plain. [Guess] tries them in this order.
func Factories() []Factory {
	return []Factory{gzipFactory{}, xzFactory{}, zstdFactory{}, plainFactory{}}
}

// ByCodec returns the factory for the named codec, or nil if unrecognized.
func ByCodec(c Codec) Factory {
	for _, f := range Factories() {
		if f.Codec() == c {
			return f
		}
	}
	return nil
}

// computeEOFMarker runs payload through a compressor built by newC and
// finished immediately, the generic implementation [Factory.EOFMarker]
// implementations share.
func computeEOFMarker(newC func(io.Writer) (Compressor, error)) ([]byte, error) {
	var buf bytes.Buffer
	c, err := newC(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(c, eofPayload); err != nil {
		return nil, err
	}
	if _, err := c.Finish(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
