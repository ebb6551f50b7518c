package scar

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metrics singletons.
var (
	tracer trace.Tracer
	meter  metric.Meter
)

// archiveCounter counts successful [OpenReader] calls, by codec.
var archiveCounter metric.Int64Counter

func init() {
	const pkgname = "github.com/scar-format/scar"
	tracer = otel.Tracer(pkgname)
	meter = otel.Meter(pkgname)

	var err error
	archiveCounter, err = meter.Int64Counter("scar.archive.count",
		metric.WithDescription("total number of archives opened via OpenReader"),
		metric.WithUnit("{instance}"),
	)
	if err != nil {
		panic(err)
	}
}
