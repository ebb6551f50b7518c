package scar

import (
	"io"
	"sync"
)

// sharedSource adapts a seekable [io.ReaderAt] to the plain [io.Reader]
// shape an [internal/xfmt.Decompressor] needs, tracking its own read
// cursor. Multiple sharedSource values over the same underlying
// [io.ReaderAt] (one per decompressor a [Reader] spawns) are safe because
// io.ReaderAt reads at explicit offsets; the mutex here only serializes
// the *borrow* of a single sharedSource's cursor across calls from a
// single in-flight decompressor, matching spec.md §5's invariant that
// exactly one borrow is active at a time and every public method releases
// it before returning.
//
// Narrowed from a parallel-fetch buffering cache down to SCAR's
// synchronous, single-borrow model.
type sharedSource struct {
	mu  sync.Mutex
	src io.ReaderAt
	pos int64
}

func newSharedSource(src io.ReaderAt, at int64) *sharedSource {
	return &sharedSource{src: src, pos: at}
}

func (s *sharedSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.src.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}
