package main

import (
	"context"
	"fmt"
)

// List prints every entry's path, one per line.
func List(ctx context.Context, args []string) error {
	cf := newCommonFlags("list")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	installLogger(cf.verbose)

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
		fmt.Fprintf(out, "%s\n", item.Path)
	}
	return nil
}
