package ustar

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func roundTrip(t *testing.T, m *Metadata) *Metadata {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteHeader(&buf, m); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	rd := NewReader(context.Background(), &buf, nil)
	got, err := rd.NextHeader()
	if err != nil {
		t.Fatalf("NextHeader: %v", err)
	}
	return got
}

func TestRoundTripNoPax(t *testing.T) {
	m := &Metadata{
		Typeflag: TypeFile,
		Mode:     0o644,
		Uid:      1000,
		Gid:      1000,
		Mtime:    1700000000,
		Size:     0,
		Uname:    []byte("user"),
		Gname:    []byte("group"),
		Path:     []byte("short/path.txt"),
	}
	got := roundTrip(t, m)
	if diff := cmp.Diff(m, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripForcesPaxOnLongPath(t *testing.T) {
	long := strings.Repeat("p", 300)
	m := &Metadata{
		Typeflag: TypeFile,
		Mode:     0o644,
		Path:     []byte(long),
	}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, m); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if buf.Bytes()[fieldTypeflag.start] != byte(MetaPaxNext) {
		t.Fatalf("expected first block's typeflag to be PaxNext ('x')")
	}
	rd := NewReader(context.Background(), &buf, nil)
	got, err := rd.NextHeader()
	if err != nil {
		t.Fatalf("NextHeader: %v", err)
	}
	if string(got.Path) != long {
		t.Fatalf("path length = %d, want %d", len(got.Path), len(long))
	}
}

func TestRoundTripForcesPaxOnLargeUid(t *testing.T) {
	m := &Metadata{
		Typeflag: TypeFile,
		Mode:     0o644,
		Uid:      uint64(maxUgid) + 1,
		Path:     []byte("f"),
	}
	got := roundTrip(t, m)
	if got.Uid != m.Uid {
		t.Fatalf("Uid = %d, want %d", got.Uid, m.Uid)
	}
}

func TestPartialPaxOverridePrecedenceIsFieldByField(t *testing.T) {
	// A PaxNext member sets only "path"; every other field must still come
	// from the ustar block, not be zeroed out.
	var buf bytes.Buffer
	pm := &PaxMeta{Path: []byte("overridden")}
	if err := writeExtendedHeader(&buf, MetaPaxNext, pm); err != nil {
		t.Fatalf("writeExtendedHeader: %v", err)
	}
	m := &Metadata{
		Typeflag: TypeFile,
		Mode:     0o600,
		Uid:      42,
		Size:     7,
		Path:     []byte("original"),
	}
	fillAndWriteMain(t, &buf, m)

	rd := NewReader(context.Background(), &buf, nil)
	got, err := rd.NextHeader()
	if err != nil {
		t.Fatalf("NextHeader: %v", err)
	}
	if string(got.Path) != "overridden" {
		t.Fatalf("Path = %q, want override %q", got.Path, "overridden")
	}
	if got.Mode != 0o600 || got.Uid != 42 || got.Size != 7 {
		t.Fatalf("non-overridden fields were not preserved: %+v", got)
	}
}

func fillAndWriteMain(t *testing.T, buf *bytes.Buffer, m *Metadata) {
	t.Helper()
	var b Block
	fillBlock(&b, m)
	sum := checksum(&b)
	formatChecksum(fieldChksum.slice(&b), sum)
	if _, err := buf.Write(b[:]); err != nil {
		t.Fatalf("write main block: %v", err)
	}
}

func TestEndOfArchive(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(make([]byte, BlockSize*2))
	rd := NewReader(context.Background(), &buf, nil)
	if _, err := rd.NextHeader(); err != ErrEndOfArchive {
		t.Fatalf("NextHeader = %v, want ErrEndOfArchive", err)
	}
}

func TestChecksumVerification(t *testing.T) {
	m := &Metadata{Typeflag: TypeFile, Mode: 0o644, Path: []byte("f")}
	var b Block
	fillBlock(&b, m)
	sum := checksum(&b)
	formatChecksum(fieldChksum.slice(&b), sum)
	if !verifyChecksum(&b) {
		t.Fatal("verifyChecksum rejected a freshly written block")
	}
	b[0] ^= 0xff
	if verifyChecksum(&b) {
		t.Fatal("verifyChecksum accepted a corrupted block")
	}
}

func TestRecordLengthSelfReferential(t *testing.T) {
	// "20 mtime=1341630000\n" is 20 bytes long, counting its own two-digit
	// length field and the trailing newline.
	n := recordLength(len("mtime"), len("1341630000"))
	if n != 20 {
		t.Fatalf("recordLength = %d, want 20", n)
	}
}

func TestParseOctalTolerant(t *testing.T) {
	// Leading zeros are accepted and the field ends at the first NUL or
	// space; whatever follows the terminator is ignored.
	v, err := parseOctal([]byte("007\x00  "))
	if err != nil {
		t.Fatalf("parseOctal: %v", err)
	}
	if v != 7 {
		t.Fatalf("parseOctal = %d, want 7", v)
	}
}

func TestLargeSizeBase256(t *testing.T) {
	var field [12]byte
	formatSize(field[:], 1<<40)
	got, err := parseSize(field[:])
	if err != nil {
		t.Fatalf("parseSize: %v", err)
	}
	if got != 1<<40 {
		t.Fatalf("parseSize = %d, want %d", got, 1<<40)
	}
	if field[0]&0x80 == 0 {
		t.Fatal("expected high bit set on base-256 encoding")
	}
}
