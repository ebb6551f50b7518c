// Command scartool is a thin CLI over the scar package: list, cat, ls,
// stat, create, and convert SCAR archives. It contains no archive-format
// logic of its own -- only argument parsing, filesystem walking, and
// output formatting.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/scar-format/scar/internal/scarlog"
)

type subcmd func(ctx context.Context, args []string) error

var subcommands = map[string]subcmd{
	"list":    List,
	"cat":     Cat,
	"ls":      Ls,
	"stat":    Stat,
	"create":  Create,
	"convert": Convert,
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: scartool <list|cat|ls|stat|create|convert> [flags] [args]\n")
}

func main() {
	shutdown := installTelemetry()
	code := run(os.Args[1:])
	shutdown()
	os.Exit(code)
}

// installTelemetry wires a bare SDK meter and tracer provider so the
// scar package's package-level tracer/meter (metrics.go) have somewhere
// to record to, even with no exporter configured. Returns a func that
// flushes and shuts both down.
func installTelemetry() func() {
	mp := sdkmetric.NewMeterProvider()
	tp := sdktrace.NewTracerProvider()
	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	return func() {
		ctx := context.Background()
		_ = mp.Shutdown(ctx)
		_ = tp.Shutdown(ctx)
	}
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}
	name := args[0]
	cmd, ok := subcommands[name]
	if !ok {
		usage()
		fmt.Fprintf(os.Stderr, "scartool: unknown subcommand %q\n", name)
		return 1
	}

	ctx := scarlog.Op(context.Background(), name)
	if err := cmd(ctx, args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 1
		}
		slog.ErrorContext(ctx, "scartool: command failed", "error", err)
		return 1
	}
	return 0
}

// commonFlags is the -i/-o/-c/-v flag set every read-oriented subcommand
// shares.
type commonFlags struct {
	fs      *flag.FlagSet
	input   string
	output  string
	codec   string
	verbose bool
}

func newCommonFlags(name string) *commonFlags {
	cf := &commonFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	cf.fs.StringVar(&cf.input, "i", "", "input file (default: stdin)")
	cf.fs.StringVar(&cf.output, "o", "", "output file (default: stdout)")
	cf.fs.StringVar(&cf.codec, "c", "auto", "compression hint: gzip|xz|zstd|plain|auto")
	cf.fs.BoolVar(&cf.verbose, "v", false, "enable debug logging")
	return cf
}

func installLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := scarlog.WrapHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(slog.New(h))
}
