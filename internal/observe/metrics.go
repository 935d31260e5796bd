// Package observe provides the OpenTelemetry instruments recorded by the
// visualizer loop and the Prometheus bridge that exposes them.
//
// Tests should use [NewMetrics] with their own [metric.MeterProvider] so
// that measurements do not leak between tests.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all barlink metrics.
const meterName = "github.com/cwbudde/barlink"

// Metrics holds the instruments for one pipeline. All fields are safe for
// concurrent use.
type Metrics struct {
	// Cycles counts completed read → reduce → send cycles.
	Cycles metric.Int64Counter

	// TransientReads counts reads skipped because of overflow or underflow.
	TransientReads metric.Int64Counter

	// WriteErrors counts failed serial writes.
	WriteErrors metric.Int64Counter

	// CycleDuration tracks the time from the end of a read to the end of the
	// matching write.
	CycleDuration metric.Float64Histogram

	// PeakLevel observes the loudest bar of each frame.
	PeakLevel metric.Int64Histogram

	// InputLevel observes the RMS level of each captured block in dBFS.
	InputLevel metric.Float64Histogram
}

// cycleBuckets covers a cycle budget of roughly 21 ms (1024 frames at 48 kHz).
var cycleBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
}

var levelBuckets = []float64{0, 16, 32, 64, 96, 128, 160, 192, 224, 255}

var dbfsBuckets = []float64{-96, -72, -60, -48, -36, -24, -18, -12, -6, -3, 0}

// NewMetrics creates a [Metrics] from mp. Returns an error if any instrument
// creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Cycles, err = m.Int64Counter("barlink.cycles",
		metric.WithDescription("Frames reduced and sent to the display."),
	); err != nil {
		return nil, err
	}
	if met.TransientReads, err = m.Int64Counter("barlink.read.transient_failures",
		metric.WithDescription("Capture reads skipped after an overflow or underflow."),
	); err != nil {
		return nil, err
	}
	if met.WriteErrors, err = m.Int64Counter("barlink.write.errors",
		metric.WithDescription("Serial writes that failed."),
	); err != nil {
		return nil, err
	}
	if met.CycleDuration, err = m.Float64Histogram("barlink.cycle.duration",
		metric.WithDescription("Time spent reducing and sending one frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(cycleBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PeakLevel, err = m.Int64Histogram("barlink.level.peak",
		metric.WithDescription("Loudest bar level per frame."),
		metric.WithExplicitBucketBoundaries(levelBuckets...),
	); err != nil {
		return nil, err
	}
	if met.InputLevel, err = m.Float64Histogram("barlink.input.level",
		metric.WithDescription("RMS level of each captured block."),
		metric.WithUnit("dBFS"),
		metric.WithExplicitBucketBoundaries(dbfsBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// DefaultMetrics builds a [Metrics] from the global meter provider, which
// is a no-op until [InitProvider] runs.
func DefaultMetrics() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider())
}

// RecordCycle records a successfully sent frame.
func (m *Metrics) RecordCycle(ctx context.Context, d time.Duration, peak uint8) {
	m.Cycles.Add(ctx, 1)
	m.CycleDuration.Record(ctx, d.Seconds())
	m.PeakLevel.Record(ctx, int64(peak))
}

// RecordInputLevel records the RMS level of a captured block.
func (m *Metrics) RecordInputLevel(ctx context.Context, dbfs float64) {
	m.InputLevel.Record(ctx, dbfs)
}

// RecordTransientRead records a skipped read.
func (m *Metrics) RecordTransientRead(ctx context.Context) {
	m.TransientReads.Add(ctx, 1)
}

// RecordWriteError records a failed serial write for port.
func (m *Metrics) RecordWriteError(ctx context.Context, port string) {
	m.WriteErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("port", port)))
}
