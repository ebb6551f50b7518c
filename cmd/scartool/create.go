package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/scar-format/scar"
)

// Create builds a SCAR archive from the filesystem trees named by its
// positional arguments, walking each with [filepath.WalkDir]. Per-platform
// stat decoding (device/inode, hardlink detection) is out of scope here;
// every regular file is written as [scar.TypeFile].
func Create(ctx context.Context, args []string) error {
	cf := newCommonFlags("create")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	installLogger(cf.verbose)
	if cf.fs.NArg() == 0 {
		return fmt.Errorf("scartool: create: expected at least one path argument")
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

	for _, root := range cf.fs.Args() {
		if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			return addPath(w, path, d)
		}); err != nil {
			return fmt.Errorf("scartool: create: %w", err)
		}
	}

	_, err = w.Finish()
	return err
}

func addPath(w *scar.Writer, path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	meta := &scar.Metadata{
		Mode:  uint32(info.Mode().Perm()),
		Mtime: float64(info.ModTime().Unix()),
		Path:  []byte(filepath.ToSlash(path)),
	}

	switch {
	case info.IsDir():
		meta.Typeflag = scar.TypeDirectory
		return w.AddEntry(meta)
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return err
		}
		meta.Typeflag = scar.TypeSymlink
		meta.Linkpath = []byte(target)
		return w.AddEntry(meta)
	case info.Mode().IsRegular():
		meta.Typeflag = scar.TypeFile
		meta.Size = uint64(info.Size())
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return w.AddFile(meta, f)
	default:
		return nil
	}
}
