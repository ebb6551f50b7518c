package ustar

import (
	"context"
	"errors"
	"io"
)

// Reader decodes a sequence of ustar/pax entries from an underlying byte
// stream. It corresponds to the "PaxReader" of spec.md §4.2.
//
// A Reader does not know about compression or checkpoints; it is handed
// whatever decompressed byte stream the caller has positioned at an entry
// boundary.
type Reader struct {
	r          io.Reader
	ctx        context.Context
	global     PaxMeta
	pending    PaxMeta
	havePend   bool
	contentRem int64 // unread content+padding bytes belonging to the current entry
}

// NewReader returns a Reader over r. seed, if non-nil, primes the global
// pax state -- used by random access (spec.md §4.4) to resume decoding
// mid-archive with the accumulated global metadata from the index.
func NewReader(ctx context.Context, r io.Reader, seed *PaxMeta) *Reader {
	rd := &Reader{r: r, ctx: ctx}
	if seed != nil {
		seed.mergeInto(&rd.global)
	}
	return rd
}

// ErrEndOfArchive is returned by [Reader.NextHeader] when the two
// terminating zero blocks are read (spec.md §3, invariant 2).
var ErrEndOfArchive = errors.New("ustar: end of archive")

// NextHeader reads and merges headers until a FileType block is found,
// returning its [Metadata]. It returns [ErrEndOfArchive] at the two-zero-
// block terminator.
func (rd *Reader) NextHeader() (*Metadata, error) {
	if err := rd.skipRemaining(); err != nil {
		return nil, err
	}
	for {
		var b Block
		if err := rd.readBlockRaw(&b); err != nil {
			return nil, err
		}
		if b.Zero() {
			var b2 Block
			if err := rd.readBlockRaw(&b2); err != nil {
				return nil, fmtErr("read second end block", err)
			}
			if b2.Zero() {
				return nil, ErrEndOfArchive
			}
			return nil, fmtErr("end marker", errors.New("incomplete end marker"))
		}
		if kind, ok := IsMeta(b[fieldTypeflag.start]); ok {
			if err := rd.readExtended(kind, &b); err != nil {
				return nil, err
			}
			continue
		}
		return rd.decodeMain(&b)
	}
}

func (rd *Reader) readExtended(kind MetaType, b *Block) error {
	size, err := parseSize(fieldSize.slice(b))
	if err != nil {
		return fmtErr("extended header size", err)
	}
	content := make([]byte, size)
	if _, err := io.ReadFull(rd.r, content); err != nil {
		return fmtErr("extended header content", err)
	}
	if err := rd.discard(roundUp512(size) - size); err != nil {
		return fmtErr("extended header padding", err)
	}
	switch kind {
	case MetaPaxNext:
		if err := parsePaxMeta(rd.ctx, &rd.pending, content); err != nil {
			return err
		}
		rd.havePend = true
	case MetaPaxGlobal:
		var g PaxMeta
		if err := parsePaxMeta(rd.ctx, &g, content); err != nil {
			return err
		}
		g.mergeInto(&rd.global)
	case MetaGnuPath:
		rd.pending.Path = cstr(content)
		rd.havePend = true
	case MetaGnuLinkPath:
		rd.pending.Linkpath = cstr(content)
		rd.havePend = true
	}
	return nil
}

func (rd *Reader) decodeMain(b *Block) (*Metadata, error) {
	m := &Metadata{
		Typeflag: FileTypeFromByte(b[fieldTypeflag.start]),
	}
	mode, err := parseOctal(fieldMode.slice(b))
	if err != nil {
		return nil, fmtErr("mode", err)
	}
	m.Mode = uint32(mode)
	if uid, err := parseOctal(fieldUID.slice(b)); err == nil {
		m.Uid = uint64(uid)
	}
	if gid, err := parseOctal(fieldGID.slice(b)); err == nil {
		m.Gid = uint64(gid)
	}
	size, err := parseSize(fieldSize.slice(b))
	if err != nil {
		return nil, fmtErr("size", err)
	}
	m.Size = uint64(size)
	if mtime, err := parseOctal(fieldMtime.slice(b)); err == nil {
		m.Mtime = float64(mtime)
	}
	m.Linkpath = cstr(fieldLinkname.slice(b))
	m.Uname = cstr(fieldUname.slice(b))
	m.Gname = cstr(fieldGname.slice(b))
	if devmajor, err := parseOctal(fieldDevmajor.slice(b)); err == nil {
		m.Devmajor = uint32(devmajor)
	}
	if devminor, err := parseOctal(fieldDevminor.slice(b)); err == nil {
		m.Devminor = uint32(devminor)
	}
	m.Path = joinPath(cstr(fieldPrefix.slice(b)), cstr(fieldName.slice(b)))

	rd.global.applyTo(m)
	if rd.havePend {
		rd.pending.applyTo(m)
		rd.pending = PaxMeta{}
		rd.havePend = false
	}

	rd.contentRem = roundUp512(int64(m.Size))
	return m, nil
}

func joinPath(prefix, name []byte) []byte {
	if len(prefix) == 0 {
		return name
	}
	out := make([]byte, 0, len(prefix)+1+len(name))
	out = append(out, prefix...)
	out = append(out, '/')
	out = append(out, name...)
	return out
}

// ReadContent copies exactly n bytes of the current entry's payload to w.
// n must not exceed the entry's declared size; the padding to the next
// block boundary is skipped lazily, on the next [Reader.NextHeader] call.
func (rd *Reader) ReadContent(w io.Writer, n int64) (int64, error) {
	if n > rd.contentRem {
		return 0, fmtErr("read content", errors.New("requested more bytes than remain"))
	}
	copied, err := io.CopyN(w, rd.r, n)
	rd.contentRem -= copied
	if err != nil {
		return copied, fmtErr("read content", err)
	}
	return copied, nil
}

// ReadBlock reads exactly one 512-byte block of the current entry's
// payload into b, zero-filling any tail shorter than a full block.
func (rd *Reader) ReadBlock(b *Block) error {
	n := int64(BlockSize)
	if rd.contentRem < n {
		n = rd.contentRem
	}
	for i := range b {
		b[i] = 0
	}
	if n == 0 {
		return io.EOF
	}
	if _, err := io.ReadFull(rd.r, b[:n]); err != nil {
		return fmtErr("read block", err)
	}
	rd.contentRem -= n
	return nil
}

func (rd *Reader) skipRemaining() error {
	if rd.contentRem == 0 {
		return nil
	}
	err := rd.discard(rd.contentRem)
	rd.contentRem = 0
	return err
}

func (rd *Reader) discard(n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, rd.r, n)
	return err
}

func (rd *Reader) readBlockRaw(b *Block) error {
	_, err := io.ReadFull(rd.r, b[:])
	if err != nil {
		return fmtErr("read block", err)
	}
	return nil
}
