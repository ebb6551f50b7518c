package xfmt

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the fixed 2-byte RFC 1952 member signature.
var gzipMagic = []byte{0x1f, 0x8b}

type gzipFactory struct{}

func (gzipFactory) Codec() Codec { return Gzip }

func (gzipFactory) CreateCompressor(sink io.Writer) (Compressor, error) {
	w, err := gzip.NewWriterLevel(sink, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	return &gzipCompressor{w: w, sink: sink}, nil
}

func (gzipFactory) CreateDecompressor(source io.Reader) (Decompressor, error) {
	return gzip.NewReader(source)
}

func (f gzipFactory) EOFMarker() ([]byte, error) {
	return computeEOFMarker(f.CreateCompressor)
}

func (gzipFactory) Magic() []byte { return gzipMagic }

type gzipCompressor struct {
	w    *gzip.Writer
	sink io.Writer
}

func (c *gzipCompressor) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c *gzipCompressor) Finish() (io.Writer, error) {
	if err := c.w.Close(); err != nil {
		return nil, err
	}
	return c.sink, nil
}
