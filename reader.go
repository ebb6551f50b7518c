package scar

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/scar-format/scar/internal/scarlog"
	"github.com/scar-format/scar/internal/sutil"
	"github.com/scar-format/scar/internal/xfmt"
)

// sniffWindow mirrors xfmt's tail-scan window (spec.md §4.4: "Read the
// last min(N, 128) bytes").
const sniffWindow = 128

// Reader opens a SCAR archive from a seekable source, implementing
// spec.md §4.4. Tail discovery and the checkpoint table are loaded
// eagerly by [OpenReader], so [Reader.Index] and [Reader.ReadItem] never
// themselves return tail-shaped errors.
type Reader struct {
	src  io.ReaderAt
	size int64

	factory xfmt.Factory

	checkpoints           []checkpoint // ascending by raw offset
	indexCompressed       int64
	checkpointsCompressed int64
}

// OpenReader opens a SCAR archive of size bytes over src, performing tail
// discovery and checkpoint-table loading before returning.
func OpenReader(src io.ReaderAt, size int64, opts ...ReaderOption) (*Reader, error) {
	return OpenReaderContext(context.Background(), src, size, opts...)
}

// OpenReaderContext is [OpenReader] with an explicit context.
func OpenReaderContext(ctx context.Context, src io.ReaderAt, size int64, opts ...ReaderOption) (*Reader, error) {
	var cfg readerConfig
	for _, o := range opts {
		o(&cfg)
	}

	ctx = scarlog.Op(ctx, "scar.OpenReader")
	ctx, span := tracer.Start(ctx, "OpenReader")
	defer span.End()

	factory := cfg.factory
	if factory == nil {
		f, err := xfmt.Guess(src, size)
		if err != nil {
			span.SetStatus(codes.Error, "compression sniff failed")
			return nil, &Error{Inner: err, Kind: ErrUnsupportedCompression, Op: "scar.OpenReader"}
		}
		factory = f
	}

	r := &Reader{src: src, size: size, factory: factory}
	if err := r.discoverTail(); err != nil {
		span.SetStatus(codes.Error, "tail discovery failed")
		return nil, err
	}
	if err := r.loadCheckpoints(); err != nil {
		span.SetStatus(codes.Error, "checkpoint load failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("compression", string(factory.Codec())),
		attribute.Bool("seekable", true),
	)
	archiveCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("compression", string(factory.Codec()))),
	)
	slog.InfoContext(ctx, "archive opened",
		"codec", factory.Codec(), "checkpoints", len(r.checkpoints))
	return r, nil
}

// discoverTail implements spec.md §4.4's "Tail discovery".
func (r *Reader) discoverTail() error {
	n := int64(sniffWindow)
	if r.size < n {
		n = r.size
	}
	window := make([]byte, n)
	if _, err := r.src.ReadAt(window, r.size-n); err != nil && err != io.EOF {
		return &Error{Inner: err, Kind: ErrIO, Op: "scar.OpenReader: read tail window"}
	}

	at := len(window)
	for {
		rel := xfmt.FindTailMagicBefore(window, r.factory, at)
		if rel < 0 {
			return &Error{Kind: ErrMalformed, Op: "scar.OpenReader", Message: "Found no tail marker"}
		}
		abs := r.size - n + int64(rel)
		ok, indexLoc, checkpointsLoc, err := r.tryTail(abs)
		if err != nil {
			return err
		}
		if ok {
			r.indexCompressed = indexLoc
			r.checkpointsCompressed = checkpointsLoc
			return nil
		}
		at = rel
	}
}

// tryTail attempts to decode a tail member starting at the absolute
// offset abs, returning ok=false (not an error) if the member doesn't
// begin with the exact "SCAR-TAIL\n" line, so the caller can retreat to
// an earlier magic occurrence.
func (r *Reader) tryTail(abs int64) (ok bool, indexLoc, checkpointsLoc int64, err error) {
	d, err := r.factory.CreateDecompressor(newSharedSource(r.src, abs))
	if err != nil {
		return false, 0, 0, nil
	}
	defer d.Close()
	br := bufio.NewReader(d)
	line, err := readLine(br)
	if err != nil || line != "SCAR-TAIL\n" {
		return false, 0, 0, nil
	}
	indexLine, err := readLine(br)
	if err != nil {
		return false, 0, 0, nil
	}
	checkpointsLine, err := readLine(br)
	if err != nil {
		return false, 0, 0, nil
	}
	idx, ok1 := sutil.ParseUint(bytes.TrimSuffix([]byte(indexLine), []byte("\n")))
	cps, ok2 := sutil.ParseUint(bytes.TrimSuffix([]byte(checkpointsLine), []byte("\n")))
	if !ok1 || !ok2 {
		return false, 0, 0, nil
	}
	return true, int64(idx), int64(cps), nil
}

// loadCheckpoints implements spec.md §4.4's "Checkpoint load".
func (r *Reader) loadCheckpoints() error {
	d, err := r.factory.CreateDecompressor(newSharedSource(r.src, r.checkpointsCompressed))
	if err != nil {
		return &Error{Inner: err, Kind: ErrIO, Op: "scar.OpenReader: checkpoints decompressor"}
	}
	defer d.Close()
	br := bufio.NewReader(d)
	head, err := readLine(br)
	if err != nil || head != "SCAR-CHECKPOINTS\n" {
		return &Error{Kind: ErrMalformed, Op: "scar.OpenReader", Message: "missing SCAR-CHECKPOINTS header"}
	}
	for {
		// Multi-member codecs (zstd, gzip, plain) decode straight through
		// the member boundary into the following "SCAR-TAIL\n" member, so
		// EOF never arrives here -- stop on that sentinel, mirroring the
		// SCAR-CHECKPOINTS peek in Index.
		peek, _ := br.Peek(len("SCAR-TAIL\n"))
		if string(peek) == "SCAR-TAIL\n" {
			break
		}
		line, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return &Error{Inner: err, Kind: ErrMalformed, Op: "scar.OpenReader: checkpoint line"}
		}
		var c, raw uint64
		if _, err := fmt.Sscanf(line, "%d %d\n", &c, &raw); err != nil {
			// Not a checkpoint line: the member boundary landed mid-line,
			// so stop cleanly rather than treat it as malformed.
			break
		}
		r.checkpoints = append(r.checkpoints, checkpoint{compressed: int64(c), raw: int64(raw)})
	}
	return nil
}

// checkpointFor returns the checkpoint with the greatest raw offset not
// exceeding rawOffset, or the zero checkpoint if none qualifies, per
// spec.md §4.4's "Random access" bullet.
func (r *Reader) checkpointFor(rawOffset int64) checkpoint {
	best := checkpoint{}
	for _, c := range r.checkpoints {
		if c.raw <= rawOffset && c.raw >= best.raw {
			best = c
		}
	}
	return best
}

// readLine reads up to and including the next '\n' from br. It returns
// io.EOF only when no bytes at all were read before the stream ended.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if len(line) == 0 {
			return "", io.EOF
		}
		return "", &Error{Inner: err, Kind: ErrMalformed, Message: "unterminated line"}
	}
	return line, nil
}
