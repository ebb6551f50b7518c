package xfmt

import "io"

// plainMagic marks the uncompressed tail member. The identity codec has no
// wire format of its own, so SCAR reuses the tail record's own leading
// literal as its magic; the other plain members (body, index, checkpoint
// table) do not begin with it, so it only serves tail discovery.
var plainMagic = []byte("SCAR-TAIL\n")

type plainFactory struct{}

func (plainFactory) Codec() Codec { return Plain }

func (plainFactory) CreateCompressor(sink io.Writer) (Compressor, error) {
	return &plainCompressor{sink: sink}, nil
}

func (plainFactory) CreateDecompressor(source io.Reader) (Decompressor, error) {
	return &plainDecompressor{r: source}, nil
}

func (plainFactory) EOFMarker() ([]byte, error) {
	return []byte(eofPayload), nil
}

func (plainFactory) Magic() []byte { return plainMagic }

// plainCompressor passes bytes through unmodified; Finish writes nothing
// beyond what was already written, since the identity codec has no
// trailer of its own.
type plainCompressor struct{ sink io.Writer }

func (c *plainCompressor) Write(p []byte) (int, error) { return c.sink.Write(p) }

func (c *plainCompressor) Finish() (io.Writer, error) { return c.sink, nil }

// plainDecompressor passes reads through unmodified; Close is a no-op
// since the identity codec holds no resources of its own, leaving the
// underlying source's lifecycle to its caller.
type plainDecompressor struct{ r io.Reader }

func (d *plainDecompressor) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *plainDecompressor) Close() error { return nil }
