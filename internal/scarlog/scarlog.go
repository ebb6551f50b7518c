// Package scarlog provides context-scoped structured logging shared by the
// scar packages and cmd/scartool.
//
// Components log through [log/slog] using the ambient attributes and level
// threshold carried on the [context.Context]; nothing in this package ever
// calls slog.SetDefault, so callers are free to install whatever handler
// they like.
package scarlog

import (
	"context"
	"log/slog"
	"slices"
)

type ctxkey int

const (
	_ ctxkey = iota
	attrsKey
	levelKey
)

// With attaches key/value pairs (in the same variadic form [log/slog]
// functions accept) to ctx, returning a context whose attributes are
// merged into every record logged through it.
func With(ctx context.Context, args ...any) context.Context {
	return WithAttrs(ctx, attrsFromArgs(args)...)
}

// WithAttrs is like [With] but takes pre-built [slog.Attr] values.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if prior, ok := ctx.Value(attrsKey).(slog.Value); ok {
		attrs = append(prior.Group(), attrs...)
	}
	// Later attributes with the same key win; drop earlier duplicates and
	// empty groups left behind by Op-scoping.
	seen := make(map[string]struct{}, len(attrs))
	dup := func(a slog.Attr) bool {
		_, have := seen[a.Key]
		seen[a.Key] = struct{}{}
		return have || (a.Value.Kind() == slog.KindGroup && len(a.Value.Group()) == 0)
	}
	slices.Reverse(attrs)
	attrs = slices.DeleteFunc(attrs, dup)
	slices.Reverse(attrs)
	return context.WithValue(ctx, attrsKey, slog.GroupValue(attrs...))
}

// WithLevel stores a minimum [slog.Leveler] on ctx; [WrapHandler] consults
// it so that, e.g., a "-v" flag can drop the threshold for one call tree
// without installing a new handler.
func WithLevel(ctx context.Context, l slog.Leveler) context.Context {
	return context.WithValue(ctx, levelKey, l)
}

// Op tags ctx with the name of the operation in progress (e.g. "Writer.Finish",
// "tail discovery"). It is a thin convenience over [With] so call sites
// scattered across the writer and reader don't repeat the attribute key.
func Op(ctx context.Context, name string) context.Context {
	return With(ctx, "op", name)
}

// WrapHandler wraps next so that attributes stashed by [With]/[WithAttrs]
// and the threshold stashed by [WithLevel] are applied to every record.
func WrapHandler(next slog.Handler) slog.Handler {
	return ctxHandler{next: next}
}

type ctxHandler struct{ next slog.Handler }

var _ slog.Handler = ctxHandler{}

func (h ctxHandler) Enabled(ctx context.Context, l slog.Level) bool {
	threshold := slog.Level(1<<31 - 1)
	if lv, ok := ctx.Value(levelKey).(slog.Leveler); ok {
		threshold = lv.Level()
	}
	return l >= threshold || h.next.Enabled(ctx, l)
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(attrsKey).(slog.Value); ok {
		r.AddAttrs(v.Group()...)
	}
	return h.next.Handle(ctx, r)
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{next: h.next.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{next: h.next.WithGroup(name)}
}

// attrsFromArgs mirrors the unexported helper in [log/slog] that turns a
// loosely-typed variadic arg list into [slog.Attr] values.
func attrsFromArgs(args []any) []slog.Attr {
	var attrs []slog.Attr
	for len(args) > 0 {
		var a slog.Attr
		a, args = attrFromArgs(args)
		attrs = append(attrs, a)
	}
	return attrs
}

func attrFromArgs(args []any) (slog.Attr, []any) {
	const badKey = "!BADKEY"
	switch x := args[0].(type) {
	case string:
		if len(args) == 1 {
			return slog.String(badKey, x), nil
		}
		return slog.Any(x, args[1]), args[2:]
	case slog.Attr:
		return x, args[1:]
	default:
		return slog.Any(badKey, x), args[1:]
	}
}
