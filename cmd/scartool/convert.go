package main

import (
	"archive/tar"
	"context"
	"io"
	"os"

	"github.com/scar-format/scar"
)

// Convert reads a pax-tar stream from stdin and writes an equivalent SCAR
// archive to stdout, preserving entry order. It uses the standard
// library's [archive/tar] reader rather than internal/ustar, since an
// arbitrary external tar stream may use full GNU/pax generality that
// internal/ustar deliberately does not (see DESIGN.md).
func Convert(ctx context.Context, args []string) error {
	cf := newCommonFlags("convert")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	installLogger(cf.verbose)

	var in io.Reader = os.Stdin
	if cf.input != "" {
		f, err := os.Open(cf.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	out, err := openOutput(cf.output)
	if err != nil {
		return err
	}
	defer out.Close()

	var opts []scar.WriterOption
	w, err := scar.NewWriterContext(ctx, out, opts...)
	if err != nil {
		return err
	}

	tr := tar.NewReader(in)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		meta := convertHeader(hdr)
		if hdr.Typeflag == tar.TypeReg {
			if err := w.AddFile(meta, tr); err != nil {
				return err
			}
			continue
		}
		if err := w.AddEntry(meta); err != nil {
			return err
		}
	}
	_, err = w.Finish()
	return err
}

func convertHeader(hdr *tar.Header) *scar.Metadata {
	m := &scar.Metadata{
		Mode:     uint32(hdr.Mode),
		Uid:      uint64(hdr.Uid),
		Gid:      uint64(hdr.Gid),
		Size:     uint64(hdr.Size),
		Mtime:    float64(hdr.ModTime.Unix()),
		Devmajor: uint32(hdr.Devmajor),
		Devminor: uint32(hdr.Devminor),
		Uname:    []byte(hdr.Uname),
		Gname:    []byte(hdr.Gname),
		Linkpath: []byte(hdr.Linkname),
		Path:     []byte(hdr.Name),
	}
	switch hdr.Typeflag {
	case tar.TypeLink:
		m.Typeflag = scar.TypeHardlink
	case tar.TypeSymlink:
		m.Typeflag = scar.TypeSymlink
	case tar.TypeChar:
		m.Typeflag = scar.TypeChardev
	case tar.TypeBlock:
		m.Typeflag = scar.TypeBlockdev
	case tar.TypeDir:
		m.Typeflag = scar.TypeDirectory
	case tar.TypeFifo:
		m.Typeflag = scar.TypeFifo
	default:
		m.Typeflag = scar.TypeFile
	}
	return m
}
