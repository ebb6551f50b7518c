package scar_test

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/scar-format/scar"
	"github.com/scar-format/scar/internal/xfmt"
)

func mustWriter(t *testing.T, buf *bytes.Buffer, opts ...scar.WriterOption) *scar.Writer {
	t.Helper()
	w, err := scar.NewWriter(buf, opts...)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w
}

func collectPaths(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	r, err := scar.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	var paths []string
	for item := range r.Index(context.Background()) {
		paths = append(paths, string(item.Path))
	}
	return paths
}

// Scenario 1: an empty archive lists nothing and ends in the codec's
// eof_marker.
func TestEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	w := mustWriter(t, &buf)
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	marker, err := xfmt.ByCodec(xfmt.Zstd).EOFMarker()
	if err != nil {
		t.Fatalf("EOFMarker: %v", err)
	}
	if !bytes.HasSuffix(buf.Bytes(), marker) {
		t.Fatal("archive does not end in the codec's eof_marker")
	}

	paths := collectPaths(t, &buf)
	if len(paths) != 0 {
		t.Fatalf("expected empty listing, got %v", paths)
	}
}

// Scenario 2: a single small file round-trips path, content, and metadata.
func TestSingleSmallFile(t *testing.T) {
	var buf bytes.Buffer
	w := mustWriter(t, &buf)
	meta := &scar.Metadata{
		Typeflag: scar.TypeFile,
		Mode:     0o644,
		Mtime:    1700000000,
		Size:     5,
		Path:     []byte("a"),
	}
	if err := w.AddFile(meta, strings.NewReader("hello")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := scar.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	var items []*scar.IndexItem
	for item := range r.Index(context.Background()) {
		items = append(items, item)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if string(items[0].Path) != "a" {
		t.Fatalf("path = %q, want %q", items[0].Path, "a")
	}

	ur, err := r.ReadItem(context.Background(), items[0])
	if err != nil {
		t.Fatalf("ReadItem: %v", err)
	}
	hdr, err := ur.NextHeader()
	if err != nil {
		t.Fatalf("NextHeader: %v", err)
	}
	if hdr.Mode != 0o644 || hdr.Size != 5 {
		t.Fatalf("header = %+v", hdr)
	}
	var content bytes.Buffer
	if _, err := ur.ReadContent(&content, int64(hdr.Size)); err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	if content.String() != "hello" {
		t.Fatalf("content = %q, want %q", content.String(), "hello")
	}
}

// Scenario 3: a hardlink entry carries the first entry's path as linkpath.
func TestHardlink(t *testing.T) {
	var buf bytes.Buffer
	w := mustWriter(t, &buf)
	first := &scar.Metadata{Typeflag: scar.TypeFile, Mode: 0o644, Size: 0, Path: []byte("first")}
	if err := w.AddFile(first, bytes.NewReader(nil)); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	link := &scar.Metadata{Typeflag: scar.TypeHardlink, Mode: 0o644, Path: []byte("second"), Linkpath: []byte("first")}
	if err := w.AddEntry(link); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := scar.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	var items []*scar.IndexItem
	for item := range r.Index(context.Background()) {
		items = append(items, item)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	ur, err := r.ReadItem(context.Background(), items[1])
	if err != nil {
		t.Fatalf("ReadItem: %v", err)
	}
	hdr, err := ur.NextHeader()
	if err != nil {
		t.Fatalf("NextHeader: %v", err)
	}
	if hdr.Typeflag != scar.TypeHardlink || string(hdr.Linkpath) != "first" {
		t.Fatalf("header = %+v", hdr)
	}
}

// Scenario 4: a 300-byte path forces a PaxNext record and round-trips in
// full.
func TestLongPath(t *testing.T) {
	long := strings.Repeat("x", 300)
	var buf bytes.Buffer
	w := mustWriter(t, &buf)
	meta := &scar.Metadata{Typeflag: scar.TypeFile, Mode: 0o644, Path: []byte(long)}
	if err := w.AddEntry(meta); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := scar.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	var items []*scar.IndexItem
	for item := range r.Index(context.Background()) {
		items = append(items, item)
	}
	if len(items) != 1 || string(items[0].Path) != long {
		t.Fatalf("long path did not round-trip through the index")
	}
	ur, err := r.ReadItem(context.Background(), items[0])
	if err != nil {
		t.Fatalf("ReadItem: %v", err)
	}
	hdr, err := ur.NextHeader()
	if err != nil {
		t.Fatalf("NextHeader: %v", err)
	}
	if string(hdr.Path) != long {
		t.Fatalf("header path length = %d, want %d", len(hdr.Path), len(long))
	}
}

// Scenario 5: a multi-MiB archive accumulates several checkpoints, and
// random access to the last entry only decodes from its nearest one.
func TestMultiCheckpointRandomAccess(t *testing.T) {
	var buf bytes.Buffer
	w := mustWriter(t, &buf, scar.WithCheckpointInterval(64*1024))
	const n = 40
	for i := 0; i < n; i++ {
		// A distinct pseudo-random payload per entry does not compress, so
		// the compressed output crosses the 64 KiB interval between entries.
		payload := make([]byte, 64*1024)
		rand.New(rand.NewSource(int64(i))).Read(payload)
		meta := &scar.Metadata{
			Typeflag: scar.TypeFile,
			Mode:     0o644,
			Size:     uint64(len(payload)),
			Path:     []byte{byte('a' + i)},
		}
		if err := w.AddFile(meta, bytes.NewReader(payload)); err != nil {
			t.Fatalf("AddFile %d: %v", i, err)
		}
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := scar.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	var items []*scar.IndexItem
	for item := range r.Index(context.Background()) {
		items = append(items, item)
	}
	if len(items) != n {
		t.Fatalf("expected %d items, got %d", n, len(items))
	}
	last := items[len(items)-1]
	ur, err := r.ReadItem(context.Background(), last)
	if err != nil {
		t.Fatalf("ReadItem: %v", err)
	}
	hdr, err := ur.NextHeader()
	if err != nil {
		t.Fatalf("NextHeader: %v", err)
	}
	if string(hdr.Path) != string(last.Path) {
		t.Fatalf("path = %q, want %q", hdr.Path, last.Path)
	}
}

// Scenario 6: the default writer produces a zstd archive that opens via
// auto-detection.
func TestZstdAutoDetection(t *testing.T) {
	var buf bytes.Buffer
	w := mustWriter(t, &buf)
	if err := w.AddEntry(&scar.Metadata{Typeflag: scar.TypeDirectory, Mode: 0o755, Path: []byte("dir")}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	r, err := scar.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader (auto-detect): %v", err)
	}
	count := 0
	for range r.Index(context.Background()) {
		count++
	}
	if count != 1 {
		t.Fatalf("expected 1 item, got %d", count)
	}
}

func TestGlob(t *testing.T) {
	var buf bytes.Buffer
	w := mustWriter(t, &buf)
	for _, p := range []string{"dir/a.txt", "dir/b.txt", "other/c.txt"} {
		if err := w.AddEntry(&scar.Metadata{Typeflag: scar.TypeFile, Mode: 0o644, Path: []byte(p)}); err != nil {
			t.Fatalf("AddEntry(%s): %v", p, err)
		}
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	r, err := scar.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	it, err := r.Glob(context.Background(), "dir/*")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	var got []string
	for item := range it {
		got = append(got, string(item.Path))
	}
	if len(got) != 2 {
		t.Fatalf("Glob(dir/*) = %v, want 2 matches", got)
	}
}
