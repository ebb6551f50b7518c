package ustar

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
)

// PaxMeta is a record of optional pax/GNU extended-header fields, per
// spec.md §3. Every field may be absent; absence is distinct from a
// zero/empty value. It serves as both the per-entry ("PaxNext") and global
// ("PaxGlobal") override source merged into a ustar-decoded [Metadata].
type PaxMeta struct {
	Atime      *float64
	Mtime      *float64
	Charset    []byte
	Comment    []byte
	Gid        *uint64
	Gname      []byte
	Hdrcharset []byte
	Linkpath   []byte
	Path       []byte
	Size       *uint64
	Uid        *uint64
	Uname      []byte
}

// maxPaxRecord is the §4.2 bound on a single pax record's self-reported
// length.
const maxPaxRecord = 16 * 1024

// paxKeys enumerates the keys [parsePaxMeta]/[PaxMeta.writeRecords] recognize.
const (
	keyAtime      = "atime"
	keyMtime      = "mtime"
	keyCharset    = "charset"
	keyComment    = "comment"
	keyGid        = "gid"
	keyGname      = "gname"
	keyHdrcharset = "hdrcharset"
	keyLinkpath   = "linkpath"
	keyPath       = "path"
	keySize       = "size"
	keyUid        = "uid"
	keyUname      = "uname"
)

// ParsePaxMeta is the exported form of [parsePaxMeta], for callers outside
// this package decoding a PaxGlobal ("g") index payload directly (e.g.
// root-package index iteration accumulating global state across 'g'
// records without a full [Reader]).
func ParsePaxMeta(ctx context.Context, dst *PaxMeta, b []byte) error {
	return parsePaxMeta(ctx, dst, b)
}

// MergeInto is the exported form of [PaxMeta.mergeInto].
func (src *PaxMeta) MergeInto(dst *PaxMeta) {
	src.mergeInto(dst)
}

// parsePaxMeta reads a sequence of "<len> key=value\n" records out of b and
// applies each to dst, per spec.md §4.2. Unknown keys are non-fatal: they're
// logged at warn level and skipped (spec.md §7).
func parsePaxMeta(ctx context.Context, dst *PaxMeta, b []byte) error {
	for len(b) > 0 {
		sp := bytes.IndexByte(b, ' ')
		if sp < 0 {
			return fmt.Errorf("ustar: pax record: missing length separator")
		}
		for _, c := range b[:sp] {
			if c < '0' || c > '9' {
				return fmt.Errorf("ustar: pax record: non-digit in length")
			}
		}
		total, err := strconv.Atoi(string(b[:sp]))
		if err != nil {
			return fmt.Errorf("ustar: pax record: bad length: %w", err)
		}
		if total > maxPaxRecord {
			return fmt.Errorf("ustar: pax record: length %d exceeds %d", total, maxPaxRecord)
		}
		if total > len(b) {
			return fmt.Errorf("ustar: pax record: length %d exceeds remaining %d bytes", total, len(b))
		}
		rec := b[:total]
		if rec[total-1] != '\n' {
			return fmt.Errorf("ustar: pax record: missing trailing newline")
		}
		kv := rec[sp+1 : total-1]
		eq := bytes.IndexByte(kv, '=')
		if eq < 0 {
			return fmt.Errorf("ustar: pax record: missing '='")
		}
		key, value := string(kv[:eq]), kv[eq+1:]
		if err := applyPaxRecord(ctx, dst, key, value); err != nil {
			return err
		}
		b = b[total:]
	}
	return nil
}

func applyPaxRecord(ctx context.Context, dst *PaxMeta, key string, value []byte) error {
	switch key {
	case keyAtime:
		v, err := strconv.ParseFloat(string(value), 64)
		if err != nil {
			return fmt.Errorf("ustar: pax record %q: %w", key, err)
		}
		dst.Atime = &v
	case keyMtime:
		v, err := strconv.ParseFloat(string(value), 64)
		if err != nil {
			return fmt.Errorf("ustar: pax record %q: %w", key, err)
		}
		dst.Mtime = &v
	case keyCharset:
		dst.Charset = append([]byte(nil), value...)
	case keyComment:
		dst.Comment = append([]byte(nil), value...)
	case keyGid:
		v, err := strconv.ParseUint(string(value), 10, 64)
		if err != nil {
			return fmt.Errorf("ustar: pax record %q: %w", key, err)
		}
		dst.Gid = &v
	case keyGname:
		dst.Gname = append([]byte(nil), value...)
	case keyHdrcharset:
		dst.Hdrcharset = append([]byte(nil), value...)
	case keyLinkpath:
		dst.Linkpath = append([]byte(nil), value...)
	case keyPath:
		dst.Path = append([]byte(nil), value...)
	case keySize:
		v, err := strconv.ParseUint(string(value), 10, 64)
		if err != nil {
			return fmt.Errorf("ustar: pax record %q: %w", key, err)
		}
		dst.Size = &v
	case keyUid:
		v, err := strconv.ParseUint(string(value), 10, 64)
		if err != nil {
			return fmt.Errorf("ustar: pax record %q: %w", key, err)
		}
		dst.Uid = &v
	case keyUname:
		dst.Uname = append([]byte(nil), value...)
	default:
		slog.WarnContext(ctx, "ustar: skipping unknown pax key", "key", key)
	}
	return nil
}

// mergeInto overlays src's present fields onto dst, field by field. It's
// used for accumulating global records and for seeding a [Reader]'s global
// state; the (GnuPath/GnuLinkPath/PaxNext) > global > ustar-block layering
// in [Reader.NextHeader] is done by [PaxMeta.applyTo].
func (src *PaxMeta) mergeInto(dst *PaxMeta) {
	if src == nil {
		return
	}
	if src.Atime != nil {
		dst.Atime = src.Atime
	}
	if src.Mtime != nil {
		dst.Mtime = src.Mtime
	}
	if src.Charset != nil {
		dst.Charset = src.Charset
	}
	if src.Comment != nil {
		dst.Comment = src.Comment
	}
	if src.Gid != nil {
		dst.Gid = src.Gid
	}
	if src.Gname != nil {
		dst.Gname = src.Gname
	}
	if src.Hdrcharset != nil {
		dst.Hdrcharset = src.Hdrcharset
	}
	if src.Linkpath != nil {
		dst.Linkpath = src.Linkpath
	}
	if src.Path != nil {
		dst.Path = src.Path
	}
	if src.Size != nil {
		dst.Size = src.Size
	}
	if src.Uid != nil {
		dst.Uid = src.Uid
	}
	if src.Uname != nil {
		dst.Uname = src.Uname
	}
}

// applyTo overlays the fields present in pm onto m, field by field. This is
// the "PaxReader" merge step of spec.md §4.2: whichever fields a partial
// pax/GNU override actually sets take precedence; every other field keeps
// whatever the ustar block (or a lower-precedence source) already decoded.
func (pm *PaxMeta) applyTo(m *Metadata) {
	if pm == nil {
		return
	}
	if pm.Atime != nil {
		m.Atime = pm.Atime
	}
	if pm.Mtime != nil {
		m.Mtime = *pm.Mtime
	}
	if pm.Charset != nil {
		m.Charset = pm.Charset
	}
	if pm.Comment != nil {
		m.Comment = pm.Comment
	}
	if pm.Gid != nil {
		m.Gid = *pm.Gid
	}
	if pm.Gname != nil {
		m.Gname = pm.Gname
	}
	if pm.Hdrcharset != nil {
		m.Hdrcharset = pm.Hdrcharset
	}
	if pm.Linkpath != nil {
		m.Linkpath = pm.Linkpath
	}
	if pm.Path != nil {
		m.Path = pm.Path
	}
	if pm.Size != nil {
		m.Size = *pm.Size
	}
	if pm.Uid != nil {
		m.Uid = *pm.Uid
	}
	if pm.Uname != nil {
		m.Uname = pm.Uname
	}
}

// String renders pm as a concatenation of pax records, the same wire form
// used for "g" (PaxGlobal) index payloads (spec.md §4.3, add_global_meta).
func (pm *PaxMeta) String() string {
	var buf bytes.Buffer
	pm.writeRecords(&buf)
	return buf.String()
}

// writeRecords appends one record per present field to buf, in a fixed,
// deterministic key order.
func (pm *PaxMeta) writeRecords(buf *bytes.Buffer) {
	str := func(key string, v []byte) {
		if v != nil {
			writeRecord(buf, key, string(v))
		}
	}
	num := func(key string, v *uint64) {
		if v != nil {
			writeRecord(buf, key, strconv.FormatUint(*v, 10))
		}
	}
	flt := func(key string, v *float64) {
		if v != nil {
			writeRecord(buf, key, formatPaxFloat(*v))
		}
	}
	flt(keyAtime, pm.Atime)
	str(keyCharset, pm.Charset)
	str(keyComment, pm.Comment)
	num(keyGid, pm.Gid)
	str(keyGname, pm.Gname)
	str(keyHdrcharset, pm.Hdrcharset)
	str(keyLinkpath, pm.Linkpath)
	flt(keyMtime, pm.Mtime)
	str(keyPath, pm.Path)
	num(keySize, pm.Size)
	num(keyUid, pm.Uid)
	str(keyUname, pm.Uname)
}

func formatPaxFloat(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeRecord appends "<len> key=value\n" to buf, computing <len> via the
// self-referential rule of spec.md §4.2.
func writeRecord(buf *bytes.Buffer, key, value string) {
	n := recordLength(len(key), len(value))
	fmt.Fprintf(buf, "%d %s=%s\n", n, key, value)
}

// recordLength finds the smallest digit count d such that the total
// d + (1 + keyLen + 1 + valLen + 1) itself has at most d decimal digits,
// then returns that total: the length of the whole record, its own length
// field included.
func recordLength(keyLen, valLen int) int {
	body := 1 + keyLen + 1 + valLen + 1
	for d := 1; ; d++ {
		total := d + body
		if digits(total) <= d {
			return total
		}
	}
}

func digits(n int) int {
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
