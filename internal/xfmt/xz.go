package xfmt

import (
	"io"

	"github.com/ulikunitz/xz"
)

// xzMagic is the fixed 6-byte xz stream header signature.
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

type xzFactory struct{}

func (xzFactory) Codec() Codec { return Xz }

func (xzFactory) CreateCompressor(sink io.Writer) (Compressor, error) {
	w, err := xz.NewWriter(sink)
	if err != nil {
		return nil, err
	}
	return &xzCompressor{w: w, sink: sink}, nil
}

func (xzFactory) CreateDecompressor(source io.Reader) (Decompressor, error) {
	r, err := xz.NewReader(source)
	if err != nil {
		return nil, err
	}
	return &xzDecompressor{r: r}, nil
}

func (f xzFactory) EOFMarker() ([]byte, error) {
	return computeEOFMarker(f.CreateCompressor)
}

func (xzFactory) Magic() []byte { return xzMagic }

type xzCompressor struct {
	w    *xz.Writer
	sink io.Writer
}

func (c *xzCompressor) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c *xzCompressor) Finish() (io.Writer, error) {
	if err := c.w.Close(); err != nil {
		return nil, err
	}
	return c.sink, nil
}

// xzDecompressor adapts [xz.Reader], which holds no closeable resources of
// its own, to [Decompressor]'s Close requirement.
type xzDecompressor struct{ r *xz.Reader }

func (d *xzDecompressor) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *xzDecompressor) Close() error { return nil }
