package scar

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"iter"
	"strconv"

	"github.com/scar-format/scar/internal/glob"
	"github.com/scar-format/scar/internal/sutil"
	"github.com/scar-format/scar/internal/ustar"
)

// maxIndexField is the §4.4 bound on a single index line's self-reported
// length.
const maxIndexField = 16 * 1024

// IndexItem describes one archive entry as recorded in the index, without
// requiring a full header decode. The accumulated global pax state at the
// point this item was recorded is carried along so [Reader.ReadItem] can
// resume decoding without re-scanning prior global-meta members.
type IndexItem struct {
	Path       []byte
	Typeflag   ustar.FileType
	Offset     int64 // raw (uncompressed) byte offset of this entry's header
	GlobalMeta ustar.PaxMeta
}

// Index returns an iterator over the archive's entries in writer order,
// implementing spec.md §4.4's "Index iteration". 'g' (PaxGlobal) records
// are consumed internally to accumulate GlobalMeta and are not yielded.
func (r *Reader) Index(ctx context.Context) iter.Seq[*IndexItem] {
	return func(yield func(*IndexItem) bool) {
		d, err := r.factory.CreateDecompressor(newSharedSource(r.src, r.indexCompressed))
		if err != nil {
			return
		}
		defer d.Close()
		br := bufio.NewReader(d)
		head, err := readLine(br)
		if err != nil || head != "SCAR-INDEX\n" {
			return
		}

		var global ustar.PaxMeta
		for {
			peek, _ := br.Peek(len("SCAR-CHECKPOINTS\n"))
			if len(peek) == 0 || bytes.Equal(peek, []byte("SCAR-CHECKPOINTS\n")) {
				return
			}
			item, isGlobal, payload, err := parseIndexLine(br)
			if err != nil {
				return
			}
			if isGlobal {
				var pm ustar.PaxMeta
				if ustar.ParsePaxMeta(ctx, &pm, payload) == nil {
					pm.MergeInto(&global)
				}
				continue
			}
			item.GlobalMeta = global
			if !yield(item) {
				return
			}
		}
	}
}

// parseIndexLine decodes one "<total> <flag> <raw_offset> <payload>[\n]"
// record from br, per spec.md §4.4 and §6.
func parseIndexLine(br *bufio.Reader) (item *IndexItem, isGlobal bool, payload []byte, err error) {
	lenTok, err := br.ReadString(' ')
	if err != nil {
		return nil, false, nil, &Error{Inner: err, Kind: ErrMalformed, Op: "scar: index line"}
	}
	lenTok = lenTok[:len(lenTok)-1]
	total, convErr := strconv.Atoi(lenTok)
	if convErr != nil {
		return nil, false, nil, &Error{Inner: convErr, Kind: ErrMalformed, Op: "scar: index line length"}
	}
	if total > maxIndexField {
		return nil, false, nil, &Error{Kind: ErrMalformed, Op: "scar: index line", Message: "field length exceeds 16 KiB"}
	}

	flag, err := br.ReadByte()
	if err != nil {
		return nil, false, nil, &Error{Inner: err, Kind: ErrMalformed, Op: "scar: index line flag"}
	}
	if sp, err := br.ReadByte(); err != nil || sp != ' ' {
		return nil, false, nil, &Error{Kind: ErrMalformed, Op: "scar: index line", Message: "missing separator after flag"}
	}

	offTok, err := br.ReadString(' ')
	if err != nil {
		return nil, false, nil, &Error{Inner: err, Kind: ErrMalformed, Op: "scar: index line raw offset"}
	}
	offTok = offTok[:len(offTok)-1]
	rawOffset, ok := sutil.ParseUint([]byte(offTok))
	if !ok {
		return nil, false, nil, &Error{Kind: ErrMalformed, Op: "scar: index line", Message: "non-decimal raw offset"}
	}

	isGlobal = flag == 'g'
	extra := 2
	if isGlobal {
		extra = 1
	}
	contentLen := total - digitCount(total) - 3 - len(offTok) - extra
	if contentLen < 0 {
		return nil, false, nil, &Error{Kind: ErrMalformed, Op: "scar: index line", Message: "negative content length"}
	}
	payload = make([]byte, contentLen)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, false, nil, &Error{Inner: err, Kind: ErrMalformed, Op: "scar: index line payload"}
	}
	if !isGlobal {
		if nl, err := br.ReadByte(); err != nil || nl != '\n' {
			return nil, false, nil, &Error{Kind: ErrMalformed, Op: "scar: index line", Message: "missing trailing newline"}
		}
	}

	item = &IndexItem{
		Path:     payload,
		Typeflag: ustar.FileTypeFromByte(flag),
		Offset:   int64(rawOffset),
	}
	return item, isGlobal, payload, nil
}

// ReadItem resumes decoding at item's header, implementing spec.md §4.4's
// "Random access: read_item(item)". The returned [ustar.Reader]'s first
// [ustar.Reader.NextHeader] call yields item's own [Metadata].
func (r *Reader) ReadItem(ctx context.Context, item *IndexItem) (*ustar.Reader, error) {
	cp := r.checkpointFor(item.Offset)
	d, err := r.factory.CreateDecompressor(newSharedSource(r.src, cp.compressed))
	if err != nil {
		return nil, &Error{Inner: err, Kind: ErrIO, Op: "scar.Reader.ReadItem"}
	}
	toSkip := item.Offset - cp.raw
	if toSkip < 0 {
		return nil, &Error{Kind: ErrMalformed, Op: "scar.Reader.ReadItem", Message: "item offset precedes its checkpoint"}
	}
	if err := discardInChunks(d, toSkip); err != nil {
		return nil, &Error{Inner: err, Kind: ErrIO, Op: "scar.Reader.ReadItem: skip to offset"}
	}
	seed := item.GlobalMeta
	return ustar.NewReader(ctx, d, &seed), nil
}

// discardInChunks reads and discards n bytes from r in 1 KiB chunks, per
// spec.md §4.4's "(in 1-KiB chunks)".
func discardInChunks(r io.Reader, n int64) error {
	const chunk = 1024
	buf := make([]byte, chunk)
	for n > 0 {
		want := int64(chunk)
		if n < want {
			want = n
		}
		if _, err := io.ReadFull(r, buf[:want]); err != nil {
			return err
		}
		n -= want
	}
	return nil
}

// Glob returns an iterator over entries whose path matches the shell-glob
// pattern, combining [internal/glob.Compile] with [Reader.Index]. It is a
// convenience beyond spec.md §4.5's bare translator, giving CLI verbs a
// filter primitive without reimplementing glob matching themselves.
func (r *Reader) Glob(ctx context.Context, pattern string) (iter.Seq[*IndexItem], error) {
	re, err := glob.Compile(pattern)
	if err != nil {
		return nil, &Error{Inner: err, Kind: ErrInvalidArgument, Op: "scar.Reader.Glob"}
	}
	return func(yield func(*IndexItem) bool) {
		for item := range r.Index(ctx) {
			if re.Match(item.Path) {
				if !yield(item) {
					return
				}
			}
		}
	}, nil
}
