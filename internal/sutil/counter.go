// Package sutil holds the small position-counting and search primitives
// spec.md §2 calls out as the "Util" component: the writer's dual
// (compressed, raw) byte counters and the tail scanner's last-occurrence
// search, shared by the compression and archive-engine packages.
package sutil

import "io"

// Counter is a byte position cursor shared (by pointer) between a wrapping
// [io.Writer]/[io.Reader] and whoever needs to read the current position --
// e.g. a [Writer] recording a checkpoint's (compressed, raw) offsets across
// a compressor finish/recreate cycle, per spec.md §4.3 ("Dual counters").
type Counter struct {
	n int64
}

// N returns the number of bytes counted so far.
func (c *Counter) N() int64 { return c.n }

// CountingWriter wraps w, incrementing c by every byte written through it.
type CountingWriter struct {
	w io.Writer
	c *Counter
}

// NewCountingWriter returns a writer that tees its byte count into c.
func NewCountingWriter(w io.Writer, c *Counter) *CountingWriter {
	return &CountingWriter{w: w, c: c}
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.c.n += int64(n)
	return n, err
}

// CountingReader wraps r, incrementing c by every byte read through it.
type CountingReader struct {
	r io.Reader
	c *Counter
}

// NewCountingReader returns a reader that tees its byte count into c.
func NewCountingReader(r io.Reader, c *Counter) *CountingReader {
	return &CountingReader{r: r, c: c}
}

func (cr *CountingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.c.n += int64(n)
	return n, err
}
