package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/scar-format/scar"
	"github.com/scar-format/scar/internal/xfmt"
)

// openArchive opens path (or stdin, if path is empty) as a seekable source
// for [scar.OpenReader]. Stdin is buffered fully into memory since it
// isn't seekable.
func openArchive(ctx context.Context, path, codecHint string) (*scar.Reader, func() error, error) {
	var (
		src  io.ReaderAt
		size int64
		closer = func() error { return nil }
	)
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("scartool: read stdin: %w", err)
		}
		src = bytes.NewReader(data)
		size = int64(len(data))
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("scartool: open %s: %w", path, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("scartool: stat %s: %w", path, err)
		}
		src, size, closer = f, info.Size(), f.Close
	}

	var opts []scar.ReaderOption
	if codecHint != "" && codecHint != "auto" {
		opts = append(opts, scar.WithCodec(xfmt.Codec(codecHint)))
	}
	r, err := scar.OpenReaderContext(ctx, src, size, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return r, closer, nil
}

// openOutput opens path for writing, or returns stdout if path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return os.Stdout, nil
	}
	return os.Create(path)
}
