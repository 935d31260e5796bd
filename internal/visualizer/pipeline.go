// Package visualizer runs the capture → reduce → send loop.
package visualizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cwbudde/barlink/bars"
	"github.com/cwbudde/barlink/dsp/level"
	"github.com/cwbudde/barlink/internal/capture"
	"github.com/cwbudde/barlink/internal/observe"
)

// ErrTooManyReadFailures is returned when transient read failures exceed
// Policy.MaxConsecutiveReadFailures.
var ErrTooManyReadFailures = errors.New("visualizer: too many consecutive read failures")

// Sink receives one set of levels per cycle.
type Sink interface {
	Send(levels bars.Levels) error
}

// Policy decides how the loop reacts to failures.
type Policy struct {
	// ExitOnWriteError makes a failed Send end the loop. When false the
	// failure is logged and counted and the loop continues.
	ExitOnWriteError bool

	// MaxConsecutiveReadFailures ends the loop after that many transient
	// read failures in a row. Zero means no limit.
	MaxConsecutiveReadFailures int

	// SilenceWarnAfter logs a warning once the input has stayed at or below
	// SilenceThreshold dBFS for that many blocks. Zero disables the check.
	SilenceWarnAfter int
	SilenceThreshold float64
}

// DefaultSilenceThreshold treats anything quieter than a couple of LSBs as
// silence.
const DefaultSilenceThreshold = -84.0

// DefaultPolicy stops on write errors and never gives up on transient reads.
func DefaultPolicy() Policy {
	return Policy{ExitOnWriteError: true, SilenceThreshold: DefaultSilenceThreshold}
}

// Pipeline wires a capture source to a sink through a reducer. It does not
// own its collaborators and never closes them.
type Pipeline struct {
	Source  capture.Source
	Reducer *bars.Reducer
	Sink    Sink

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *observe.Metrics

	Policy Policy
}

// Run loops until ctx is cancelled or a fatal error occurs. Cancellation
// and end of input both return nil.
//
// Each cycle is strictly sequential: one block is read, reduced and sent
// before the next read starts.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.Source == nil || p.Reducer == nil || p.Sink == nil {
		return errors.New("visualizer: pipeline needs a source, reducer and sink")
	}

	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	cfg := p.Reducer.Config()
	block := make([]int16, cfg.BlockLen())
	levels := make(bars.Levels, cfg.NumBars)
	failures := 0
	silence := level.NewSilenceDetector(p.Policy.SilenceThreshold, p.Policy.SilenceWarnAfter)

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := p.Source.ReadBlock(ctx, block)
		switch {
		case err == nil:
			failures = 0
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			log.Info("capture input ended")
			return nil
		case errors.Is(err, capture.ErrTransientRead):
			failures++
			p.recordTransient(ctx)
			log.Debug("skipping block", "err", err, "consecutive", failures)
			if limit := p.Policy.MaxConsecutiveReadFailures; limit > 0 && failures >= limit {
				return fmt.Errorf("%w: %d: %w", ErrTooManyReadFailures, failures, err)
			}
			continue
		default:
			return fmt.Errorf("visualizer: read: %w", err)
		}

		in := level.Measure(block)
		if p.Metrics != nil {
			p.Metrics.RecordInputLevel(ctx, in.RMSdBFS)
		}
		if silence.Observe(in) {
			log.Warn("capture input is silent; check that device_id selects the loopback or monitor source",
				"blocks", silence.Run())
		}

		start := time.Now()
		levels, err = p.Reducer.ReduceInto(levels[:0], block)
		if err != nil {
			return fmt.Errorf("visualizer: reduce: %w", err)
		}

		if err := p.Sink.Send(levels); err != nil {
			if p.Metrics != nil {
				p.Metrics.RecordWriteError(ctx, sinkName(p.Sink))
			}
			if p.Policy.ExitOnWriteError {
				return fmt.Errorf("visualizer: send: %w", err)
			}
			log.Warn("send failed", "err", err)
			continue
		}

		if p.Metrics != nil {
			p.Metrics.RecordCycle(ctx, time.Since(start), levels.Max())
		}
		if log.Enabled(ctx, slog.LevelDebug) {
			bin, mag := p.Reducer.Peak()
			log.Debug("frame sent", "levels", []uint8(levels), "peak_bin", bin, "peak_mag", mag, "rms_dbfs", in.RMSdBFS)
		}
	}
}

func (p *Pipeline) recordTransient(ctx context.Context) {
	if p.Metrics != nil {
		p.Metrics.RecordTransientRead(ctx)
	}
}

type namedSink interface {
	Port() string
}

func sinkName(s Sink) string {
	if n, ok := s.(namedSink); ok {
		return n.Port()
	}
	return fmt.Sprintf("%T", s)
}
