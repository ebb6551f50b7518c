package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// Stat prints the mode, mtime, and (if present) linkpath of the single
// entry named by its positional argument.
func Stat(ctx context.Context, args []string) error {
	cf := newCommonFlags("stat")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	installLogger(cf.verbose)
	if cf.fs.NArg() != 1 {
		return fmt.Errorf("scartool: stat: expected exactly one path argument")
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
		tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
		fmt.Fprintf(tw, "path:\t%s\n", hdr.Path)
		fmt.Fprintf(tw, "type:\t%s\n", hdr.Typeflag)
		fmt.Fprintf(tw, "mode:\t%o\n", hdr.Mode)
		fmt.Fprintf(tw, "mtime:\t%d\n", int64(hdr.Mtime))
		fmt.Fprintf(tw, "size:\t%d\n", hdr.Size)
		if len(hdr.Linkpath) > 0 {
			fmt.Fprintf(tw, "linkpath:\t%s\n", hdr.Linkpath)
		}
		return tw.Flush()
	}
	return fmt.Errorf("scartool: stat: no such entry %q", target)
}
