package ustar

import (
	"bytes"
	"io"
	"math"
	"strings"
)

// Pax-forcing capacities, per spec.md §4.2.
const (
	maxUgid  = 0o7777777
	maxSize  = 0o77777777777
	maxMtime = 0o777777777777
	maxName  = 100
	maxUname = 32
)

// needsPax reports whether m requires a PaxNext member before its main
// ustar block, and if so returns the minimal set of overridden fields.
func needsPax(m *Metadata) (ov PaxMeta, any bool) {
	if m.Gid > maxUgid {
		v := m.Gid
		ov.Gid, any = &v, true
	}
	if m.Uid > maxUgid {
		v := m.Uid
		ov.Uid, any = &v, true
	}
	if m.Size > maxSize {
		v := m.Size
		ov.Size, any = &v, true
	}
	if len(m.Uname) > maxUname {
		ov.Uname, any = m.Uname, true
	}
	if len(m.Gname) > maxUname {
		ov.Gname, any = m.Gname, true
	}
	if len(m.Linkpath) > maxName {
		ov.Linkpath, any = m.Linkpath, true
	}
	if len(m.Path) > maxName {
		ov.Path, any = m.Path, true
	}
	if mtimeNeedsPax(m.Mtime) {
		v := m.Mtime
		ov.Mtime, any = &v, true
	}
	if m.Atime != nil {
		ov.Atime, any = m.Atime, true
	}
	if m.Charset != nil {
		ov.Charset, any = m.Charset, true
	}
	if m.Comment != nil {
		ov.Comment, any = m.Comment, true
	}
	if m.Hdrcharset != nil {
		ov.Hdrcharset, any = m.Hdrcharset, true
	}
	return ov, any
}

func mtimeNeedsPax(v float64) bool {
	if v != math.Trunc(v) {
		return true
	}
	if v < 0 {
		return true
	}
	return int64(v) > maxMtime
}

// WriteHeader writes m to w: a PaxNext extended-header member first, iff
// [needsPax] says one is required, followed by the main ustar block.
func WriteHeader(w io.Writer, m *Metadata) error {
	if ov, any := needsPax(m); any {
		if err := writeExtendedHeader(w, MetaPaxNext, &ov); err != nil {
			return fmtErr("write pax header", err)
		}
	}
	var b Block
	fillBlock(&b, m)
	sum := checksum(&b)
	formatChecksum(fieldChksum.slice(&b), sum)
	if _, err := w.Write(b[:]); err != nil {
		return fmtErr("write ustar block", err)
	}
	return nil
}

// WriteGlobalMeta writes a raw "g" (PaxGlobal) member carrying pm, per
// spec.md §4.3 (add_global_meta).
func WriteGlobalMeta(w io.Writer, pm *PaxMeta) error {
	return writeExtendedHeader(w, MetaPaxGlobal, pm)
}

func writeExtendedHeader(w io.Writer, kind MetaType, pm *PaxMeta) error {
	var buf bytes.Buffer
	pm.writeRecords(&buf)
	payload := buf.Bytes()

	var b Block
	b[fieldTypeflag.start] = byte(kind)
	formatSize(fieldSize.slice(&b), int64(len(payload)))
	copy(fieldMagic.slice(&b), Magic)
	copy(fieldVersion.slice(&b), Version)
	sum := checksum(&b)
	formatChecksum(fieldChksum.slice(&b), sum)
	if _, err := w.Write(b[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return writePadding(w, int64(len(payload)))
}

func writePadding(w io.Writer, contentLen int64) error {
	pad := roundUp512(contentLen) - contentLen
	if pad == 0 {
		return nil
	}
	var zero [BlockSize]byte
	_, err := w.Write(zero[:pad])
	return err
}

func roundUp512(n int64) int64 { return (n + BlockSize - 1) &^ (BlockSize - 1) }

// fillBlock writes m's fields into b, splitting Path across name/prefix and
// truncating any field that still doesn't fit even after a PaxNext override
// was emitted for it (the ustar block always holds a best-effort value so
// non-pax-aware readers see something plausible).
func fillBlock(b *Block, m *Metadata) {
	name, prefix := splitPath(string(m.Path))
	copyTrunc(fieldName.slice(b), name)
	copyTrunc(fieldPrefix.slice(b), prefix)
	formatOctal(fieldMode.slice(b), int64(m.Mode))
	formatOctal(fieldUID.slice(b), int64(m.Uid))
	formatOctal(fieldGID.slice(b), int64(m.Gid))
	formatSize(fieldSize.slice(b), int64(m.Size))
	formatOctal(fieldMtime.slice(b), int64(m.Mtime))
	b[fieldTypeflag.start] = m.Typeflag.Byte()
	copyTrunc(fieldLinkname.slice(b), string(m.Linkpath))
	copy(fieldMagic.slice(b), Magic)
	copy(fieldVersion.slice(b), Version)
	copyTrunc(fieldUname.slice(b), string(m.Uname))
	copyTrunc(fieldGname.slice(b), string(m.Gname))
	formatOctal(fieldDevmajor.slice(b), int64(m.Devmajor))
	formatOctal(fieldDevminor.slice(b), int64(m.Devminor))
}

func copyTrunc(dst []byte, s string) {
	if len(s) > len(dst) {
		s = s[:len(dst)]
	}
	copy(dst, s)
}

// splitPath divides p into a ustar name/prefix pair, per spec.md §4.2
// ("Path reassembly"), preferring to keep the whole path in "name" when it
// fits. If p can't be represented even by splitting (a path segment longer
// than 100 bytes with no usable slash), the caller's PaxNext override (if
// any) carries the real value and this just returns a best-effort
// truncation.
func splitPath(p string) (name, prefix string) {
	if len(p) <= maxName {
		return p, ""
	}
	if len(p) > maxName+155 {
		return p[:maxName], ""
	}
	max := len(p)
	if max > maxName+1 {
		max = maxName + 1
	}
	i := strings.LastIndex(p[:max], "/")
	for i >= 0 {
		name, prefix = p[i+1:], p[:i]
		if len(name) <= maxName && len(prefix) <= 155 {
			return name, prefix
		}
		i = strings.LastIndex(p[:i], "/")
	}
	return p[:maxName], ""
}

// formatChecksum writes v as 6 octal digits, a NUL, then a space -- the
// format most tar readers expect (spec.md §4.2, "Checksum"). The field is
// fixed at 8 bytes; 6 octal digits comfortably cover the maximum possible
// 512-byte sum (0377000 octal).
func formatChecksum(b []byte, v int64) {
	for i := 5; i >= 0; i-- {
		b[i] = byte('0' + v%8)
		v /= 8
	}
	b[6] = 0
	b[7] = ' '
}
