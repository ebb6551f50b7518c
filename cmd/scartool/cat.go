package main

import (
	"context"
	"fmt"
)

// Cat prints the content of the single entry whose path matches its
// positional argument exactly.
func Cat(ctx context.Context, args []string) error {
	cf := newCommonFlags("cat")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	installLogger(cf.verbose)
	if cf.fs.NArg() != 1 {
		return fmt.Errorf("scartool: cat: expected exactly one path argument")
	}
	target := cf.fs.Arg(0)

	r, closer, err := openArchive(ctx, cf.input, cf.codec)
	if err != nil {
		return err
	}
	defer closer()

	out, err := openOutput(cf.output)
	if err != nil {
		return err
	}
	defer out.Close()

	for item := range r.Index(ctx) {
		if string(item.Path) != target {
			continue
		}
		ur, err := r.ReadItem(ctx, item)
		if err != nil {
			return err
		}
		hdr, err := ur.NextHeader()
		if err != nil {
			return err
		}
		if _, err := ur.ReadContent(out, int64(hdr.Size)); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("scartool: cat: no such entry %q", target)
}
