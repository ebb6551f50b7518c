package xfmt

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the fixed 4-byte little-endian zstd frame magic number.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type zstdFactory struct{}

func (zstdFactory) Codec() Codec { return Zstd }

func (zstdFactory) CreateCompressor(sink io.Writer) (Compressor, error) {
	w, err := zstd.NewWriter(sink, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	return &zstdCompressor{w: w, sink: sink}, nil
}

func (zstdFactory) CreateDecompressor(source io.Reader) (Decompressor, error) {
	d, err := zstd.NewReader(source)
	if err != nil {
		return nil, err
	}
	return &zstdDecompressor{d: d}, nil
}

func (f zstdFactory) EOFMarker() ([]byte, error) {
	return computeEOFMarker(f.CreateCompressor)
}

func (zstdFactory) Magic() []byte { return zstdMagic }

type zstdCompressor struct {
	w    *zstd.Encoder
	sink io.Writer
}

func (c *zstdCompressor) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c *zstdCompressor) Finish() (io.Writer, error) {
	if err := c.w.Close(); err != nil {
		return nil, err
	}
	return c.sink, nil
}

// zstdDecompressor adapts [zstd.Decoder] (which must be explicitly freed)
// to the plain [io.Reader] shape [Decompressor] needs; the decoder's
// background goroutines are released once the member is fully read or
// abandoned.
type zstdDecompressor struct{ d *zstd.Decoder }

func (z *zstdDecompressor) Read(p []byte) (int, error) {
	n, err := z.d.Read(p)
	if err != nil {
		z.d.Close()
	}
	return n, err
}

// Close releases the decoder's background goroutines. Idempotent, like
// [zstd.Decoder.Close] itself.
func (z *zstdDecompressor) Close() error {
	z.d.Close()
	return nil
}
