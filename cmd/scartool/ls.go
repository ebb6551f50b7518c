package main

import (
	"context"
	"fmt"
)

// Ls lists every entry under the directory prefix named by its positional
// argument, via [scar.Reader.Glob]'s G ∪ G/* convention (spec.md §4.5).
func Ls(ctx context.Context, args []string) error {
	cf := newCommonFlags("ls")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	installLogger(cf.verbose)
	if cf.fs.NArg() != 1 {
		return fmt.Errorf("scartool: ls: expected exactly one path argument")
	}
	pattern := cf.fs.Arg(0)

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

	exact, err := r.Glob(ctx, pattern)
	if err != nil {
		return err
	}
	nested, err := r.Glob(ctx, pattern+"/*")
	if err != nil {
		return err
	}
	for item := range exact {
		fmt.Fprintf(out, "%s\n", item.Path)
	}
	for item := range nested {
		fmt.Fprintf(out, "%s\n", item.Path)
	}
	return nil
}
