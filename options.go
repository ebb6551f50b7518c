package scar

import "github.com/scar-format/scar/internal/xfmt"

// defaultCheckpointInterval is the 1 MiB threshold spec.md §4.3 names for
// forcing a checkpoint on entry-start.
const defaultCheckpointInterval = 1 << 20

// WriterOption configures a [Writer] constructed by [NewWriter].
type WriterOption func(*writerConfig)

type writerConfig struct {
	factory            xfmt.Factory
	checkpointInterval int64
}

func defaultWriterConfig() writerConfig {
	return writerConfig{
		factory:            xfmt.ByCodec(xfmt.Zstd),
		checkpointInterval: defaultCheckpointInterval,
	}
}

// WithCompression selects the compression codec a [Writer] uses. The
// default is zstd, per spec.md §6 ("Default compression is zstd at
// level 3").
func WithCompression(c xfmt.Codec) WriterOption {
	return func(cfg *writerConfig) {
		if f := xfmt.ByCodec(c); f != nil {
			cfg.factory = f
		}
	}
}

// WithCheckpointInterval overrides the compressed-byte threshold that
// forces a checkpoint on entry-start (spec.md §4.3). The default is 1 MiB.
func WithCheckpointInterval(n int64) WriterOption {
	return func(cfg *writerConfig) {
		if n > 0 {
			cfg.checkpointInterval = n
		}
	}
}

// ReaderOption configures a [Reader] constructed by [OpenReader].
type ReaderOption func(*readerConfig)

type readerConfig struct {
	factory xfmt.Factory // nil means sniff via xfmt.Guess
}

// WithCodec forces a specific decompression codec instead of the default
// tail-sniffing behavior ([xfmt.Guess]), per spec.md §6's `-c` CLI hint.
func WithCodec(c xfmt.Codec) ReaderOption {
	return func(cfg *readerConfig) {
		cfg.factory = xfmt.ByCodec(c)
	}
}
