// Package observe provides observability primitives for ringwatch:
// OpenTelemetry metrics with a Prometheus exporter bridge so the standard
// /metrics endpoint keeps working.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all ringwatch metrics.
const meterName = "github.com/ringwatch/ringwatch"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// FeedDuration tracks per-frame analysis latency.
	FeedDuration metric.Float64Histogram

	// Verdicts counts produced verdicts. Use with attribute:
	//   attribute.String("verdict", ...)
	Verdicts metric.Int64Counter

	// Hangups counts termination requests raised by the hangup policy.
	Hangups metric.Int64Counter

	// FrameErrors counts skipped malformed media frames.
	FrameErrors metric.Int64Counter

	// MediaFrames counts accepted media frames. Use with attribute:
	//   attribute.String("codec", ...)
	MediaFrames metric.Int64Counter

	// ActiveSessions tracks the number of attached detection sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// feedLatencyBuckets defines histogram bucket boundaries (in seconds) sized
// for per-frame DSP work, which is far below typical request latencies.
var feedLatencyBuckets = []float64{
	0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FeedDuration, err = m.Float64Histogram("ringwatch.feed.duration",
		metric.WithDescription("Latency of per-frame tone analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(feedLatencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Verdicts, err = m.Int64Counter("ringwatch.verdicts",
		metric.WithDescription("Total verdicts produced by verdict kind."),
	); err != nil {
		return nil, err
	}
	if met.Hangups, err = m.Int64Counter("ringwatch.hangups",
		metric.WithDescription("Total call termination requests raised by the hangup policy."),
	); err != nil {
		return nil, err
	}
	if met.FrameErrors, err = m.Int64Counter("ringwatch.frame.errors",
		metric.WithDescription("Total malformed media frames skipped."),
	); err != nil {
		return nil, err
	}
	if met.MediaFrames, err = m.Int64Counter("ringwatch.media.frames",
		metric.WithDescription("Total accepted media frames by codec."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("ringwatch.active_sessions",
		metric.WithDescription("Number of attached detection sessions."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("ringwatch.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}
