package xfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, f := range Factories() {
		f := f
		t.Run(string(f.Codec()), func(t *testing.T) {
			var buf bytes.Buffer
			c, err := f.CreateCompressor(&buf)
			if err != nil {
				t.Fatalf("CreateCompressor: %v", err)
			}
			want := []byte("the quick brown fox jumps over the lazy dog\n")
			if _, err := c.Write(want); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if _, err := c.Finish(); err != nil {
				t.Fatalf("Finish: %v", err)
			}

			d, err := f.CreateDecompressor(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("CreateDecompressor: %v", err)
			}
			got, err := io.ReadAll(d)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("round trip mismatch: got %q want %q", got, want)
			}
		})
	}
}

func TestEOFMarkerIsSuffixOfStandaloneMember(t *testing.T) {
	for _, f := range Factories() {
		f := f
		t.Run(string(f.Codec()), func(t *testing.T) {
			var buf bytes.Buffer
			c, err := f.CreateCompressor(&buf)
			if err != nil {
				t.Fatalf("CreateCompressor: %v", err)
			}
			if _, err := io.WriteString(c, eofPayload); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if _, err := c.Finish(); err != nil {
				t.Fatalf("Finish: %v", err)
			}
			marker, err := f.EOFMarker()
			if err != nil {
				t.Fatalf("EOFMarker: %v", err)
			}
			if !bytes.HasSuffix(buf.Bytes(), marker) {
				t.Fatalf("eof_marker %x is not a suffix of standalone member %x", marker, buf.Bytes())
			}
		})
	}
}

func TestGuessPicksMatchingCodec(t *testing.T) {
	for _, f := range Factories() {
		f := f
		t.Run(string(f.Codec()), func(t *testing.T) {
			var buf bytes.Buffer
			c, err := f.CreateCompressor(&buf)
			if err != nil {
				t.Fatalf("CreateCompressor: %v", err)
			}
			if _, err := io.WriteString(c, "payload\n"); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if _, err := c.Finish(); err != nil {
				t.Fatalf("Finish: %v", err)
			}
			marker, err := f.EOFMarker()
			if err != nil {
				t.Fatalf("EOFMarker: %v", err)
			}
			buf.Write(marker)

			got, err := Guess(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			if err != nil {
				t.Fatalf("Guess: %v", err)
			}
			if got.Codec() != f.Codec() {
				t.Fatalf("Guess = %v, want %v", got.Codec(), f.Codec())
			}
		})
	}
}

func TestGuessNoMarker(t *testing.T) {
	_, err := Guess(bytes.NewReader([]byte("not a valid trailer at all")), 27)
	if err == nil {
		t.Fatal("expected error for unrecognized trailer")
	}
}

func TestByCodec(t *testing.T) {
	if ByCodec(Zstd) == nil {
		t.Fatal("ByCodec(Zstd) = nil")
	}
	if ByCodec(Codec("bogus")) != nil {
		t.Fatal("ByCodec(bogus) should be nil")
	}
}
