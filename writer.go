package scar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/scar-format/scar/internal/scarlog"
	"github.com/scar-format/scar/internal/sutil"
	"github.com/scar-format/scar/internal/ustar"
	"github.com/scar-format/scar/internal/xfmt"
)

// indexRecord is one in-memory entry accumulated during writing, per
// spec.md §4.3's "Index entries" (raw_loc, typeflag_char, path_bytes or
// global-payload).
type indexRecord struct {
	rawLoc   int64
	typeflag byte
	payload  []byte // path bytes for normal entries, stringified PaxMeta for 'g'
}

// checkpoint is one recorded (compressed, raw) offset pair, per spec.md
// §4.3's "Checkpointing".
type checkpoint struct {
	compressed int64
	raw        int64
}

// Writer builds a SCAR archive over sink, implementing spec.md §4.3's
// pipeline and checkpointing rules.
type Writer struct {
	ctx  context.Context
	sink io.Writer
	cfg  writerConfig

	cc *sutil.Counter // compressed bytes written to the sink so far
	cr *sutil.Counter // raw (pre-compression) bytes written so far

	x  xfmt.Compressor
	w1 io.Writer // Counter(sink, cc)
	w2 io.Writer // Counter(x, cr)

	lastCheckpointCompressed int64
	checkpoints              []checkpoint
	index                    []indexRecord

	finished bool
}

// NewWriter returns a [Writer] that streams a SCAR archive to sink. By
// default it compresses with zstd and checkpoints every 1 MiB of
// compressed output; see [WithCompression] and [WithCheckpointInterval].
func NewWriter(sink io.Writer, opts ...WriterOption) (*Writer, error) {
	return NewWriterContext(context.Background(), sink, opts...)
}

// NewWriterContext is [NewWriter] with an explicit context, used for
// logging scope via [internal/scarlog].
func NewWriterContext(ctx context.Context, sink io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := defaultWriterConfig()
	for _, o := range opts {
		o(&cfg)
	}
	w := &Writer{
		ctx:  scarlog.Op(ctx, "scar.NewWriter"),
		sink: sink,
		cfg:  cfg,
		cc:   new(sutil.Counter),
		cr:   new(sutil.Counter),
	}
	if err := w.openMember(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openMember() error {
	w.w1 = sutil.NewCountingWriter(w.sink, w.cc)
	x, err := w.cfg.factory.CreateCompressor(w.w1)
	if err != nil {
		return &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer: create compressor"}
	}
	w.x = x
	w.w2 = sutil.NewCountingWriter(w.x, w.cr)
	return nil
}

// maybeCheckpoint implements "On each entry-start... if Cc -
// last_checkpoint_compressed > checkpoint interval perform a checkpoint."
func (w *Writer) maybeCheckpoint() error {
	if w.cc.N()-w.lastCheckpointCompressed > w.cfg.checkpointInterval {
		return w.checkpointNow()
	}
	return nil
}

// checkpointNow forces a checkpoint regardless of the interval, per
// spec.md §4.3's finish() steps 2/5/7.
func (w *Writer) checkpointNow() error {
	if _, err := w.x.Finish(); err != nil {
		return &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer: finish compressor"}
	}
	w.checkpoints = append(w.checkpoints, checkpoint{compressed: w.cc.N(), raw: w.cr.N()})
	w.lastCheckpointCompressed = w.cc.N()
	return w.openMember()
}

// AddEntry records meta's header, triggering checkpoint consideration and
// writing the ustar/pax header. It does not stream any payload; use
// [Writer.AddFile] for entries with content.
func (w *Writer) AddEntry(meta *Metadata) error {
	if err := w.maybeCheckpoint(); err != nil {
		return err
	}
	w.index = append(w.index, indexRecord{
		rawLoc:   w.cr.N(),
		typeflag: meta.Typeflag.Byte(),
		payload:  append([]byte(nil), meta.Path...),
	})
	if err := ustar.WriteHeader(w.w2, meta); err != nil {
		return &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.AddEntry"}
	}
	return nil
}

// AddFile records meta's header and streams exactly meta.Size bytes of
// content from r, padded to the next 512-byte boundary.
func (w *Writer) AddFile(meta *Metadata, r io.Reader) error {
	if err := w.AddEntry(meta); err != nil {
		return err
	}
	n, err := io.CopyN(w.w2, r, int64(meta.Size))
	if err != nil {
		return &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.AddFile: content"}
	}
	pad := (512 - n%512) % 512
	if pad > 0 {
		var zero [512]byte
		if _, err := w.w2.Write(zero[:pad]); err != nil {
			return &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.AddFile: padding"}
		}
	}
	return nil
}

// AddGlobalMeta writes a raw PaxGlobal ("g") member carrying pm, recording
// an index entry with typeflag 'g' whose payload is pm's stringified
// form, per spec.md §4.3's add_global_meta.
func (w *Writer) AddGlobalMeta(pm *ustar.PaxMeta) error {
	if err := w.maybeCheckpoint(); err != nil {
		return err
	}
	w.index = append(w.index, indexRecord{
		rawLoc:   w.cr.N(),
		typeflag: 'g',
		payload:  []byte(pm.String()),
	})
	if err := ustar.WriteGlobalMeta(w.w2, pm); err != nil {
		return &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.AddGlobalMeta"}
	}
	return nil
}

// Finish writes the tar terminator, index, checkpoint table, and tail
// pointer, then finalizes the last compressed member and appends the
// codec's eof_marker, per spec.md §4.3 ("finish()"). It returns the
// absolute (raw, uncompressed-stream) byte offset the tail member's
// content begins carrying, primarily useful for logging.
func (w *Writer) Finish() (tailOffset int64, err error) {
	if w.finished {
		return 0, &Error{Kind: ErrInvalidArgument, Op: "scar.Writer.Finish", Message: "already finished"}
	}
	w.finished = true

	ctx, span := tracer.Start(w.ctx, "Writer.Finish")
	defer span.End()

	var zero [1024]byte // two zero blocks
	if _, err := w.w2.Write(zero[:]); err != nil {
		return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: terminator"}
	}
	if err := w.checkpointNow(); err != nil {
		return 0, err
	}
	indexCheckpoint := w.checkpoints[len(w.checkpoints)-1]

	if _, err := io.WriteString(w.w2, "SCAR-INDEX\n"); err != nil {
		return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: index header"}
	}
	for _, rec := range w.index {
		if err := writeIndexLine(w.w2, rec); err != nil {
			return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: index line"}
		}
	}
	if err := w.checkpointNow(); err != nil {
		return 0, err
	}
	checkpointsCheckpoint := w.checkpoints[len(w.checkpoints)-1]

	if _, err := io.WriteString(w.w2, "SCAR-CHECKPOINTS\n"); err != nil {
		return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: checkpoints header"}
	}
	for _, cp := range w.checkpoints {
		if _, err := fmt.Fprintf(w.w2, "%d %d\n", cp.compressed, cp.raw); err != nil {
			return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: checkpoint line"}
		}
	}
	if err := w.checkpointNow(); err != nil {
		return 0, err
	}

	tailOffset = w.cr.N()
	if _, err := fmt.Fprintf(w.w2, "SCAR-TAIL\n%d\n%d\n", indexCheckpoint.compressed, checkpointsCheckpoint.compressed); err != nil {
		return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: tail"}
	}
	if _, err := w.x.Finish(); err != nil {
		return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: final compressor"}
	}
	marker, err := w.cfg.factory.EOFMarker()
	if err != nil {
		return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: eof marker"}
	}
	if _, err := w.sink.Write(marker); err != nil {
		return 0, &Error{Inner: err, Kind: ErrIO, Op: "scar.Writer.Finish: eof marker write"}
	}

	slog.InfoContext(ctx, "archive finished",
		"entries", len(w.index), "checkpoints", len(w.checkpoints), "compressed_bytes", w.cc.N())
	return tailOffset, nil
}

// writeIndexLine writes one "<total> <flag> <raw_loc> <payload>[\n]" line,
// per spec.md §4.3/§6. The trailing '\n' is appended for normal entries;
// 'g' entries omit it since the payload already ends in one.
func writeIndexLine(w io.Writer, rec indexRecord) error {
	rawStr := fmt.Sprintf("%d", rec.rawLoc)
	total := indexLineLength(len(rawStr), len(rec.payload), rec.typeflag == 'g')

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %c %s ", total, rec.typeflag, rawStr)
	buf.Write(rec.payload)
	if rec.typeflag != 'g' {
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// indexLineLength computes the self-referential total length of an index
// line, inverting the reader's content_length formula (spec.md §4.4):
//
//	content_length = field_length - digits(field_length) - 3 - digits(raw_offset) - (1 if typeflag == 'g' else 2)
func indexLineLength(rawDigitsLen, payloadLen int, isGlobal bool) int {
	extra := 2
	if isGlobal {
		extra = 1
	}
	body := rawDigitsLen + payloadLen + 3 + extra
	for d := 1; ; d++ {
		total := d + body
		if digitCount(total) <= d {
			return total
		}
	}
}

func digitCount(n int) int {
	if n == 0 {
		return 1
	}
	d := 0
	for n > 0 {
		d++
		n /= 10
	}
	return d
}
