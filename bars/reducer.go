package bars

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/barlink/dsp/pcm"
	"github.com/cwbudde/barlink/dsp/spectrum"
	"github.com/cwbudde/barlink/dsp/window"
)

// ErrBlockSize is returned by Reduce when a block does not hold exactly
// ChunkSize*Channels samples.
var ErrBlockSize = errors.New("bars: block length does not match chunk size * channels")

// Reducer turns interleaved PCM blocks into band levels.
//
// Reduce is a pure function of its input: equal blocks give equal levels.
// The Reducer keeps scratch buffers between calls, so a single instance must
// not be shared between goroutines.
type Reducer struct {
	cfg      Config
	analyzer *spectrum.RealAnalyzer
	coeffs   []float64
	ranges   []spectrum.Range

	mono    []int16
	samples []float64
	mag     []float64
	sums    []float64
}

// NewReducer builds a Reducer from the default config and opts.
func NewReducer(opts ...Option) (*Reducer, error) {
	return New(ApplyOptions(opts...))
}

// New builds a Reducer from an explicit config.
func New(cfg Config) (*Reducer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := spectrum.NewRealAnalyzer(cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}

	r := &Reducer{
		cfg:      cfg,
		analyzer: analyzer,
		ranges:   spectrum.SplitEven(cfg.Bins(), cfg.NumBars),
		mono:     make([]int16, cfg.ChunkSize),
		samples:  make([]float64, cfg.ChunkSize),
		mag:      make([]float64, analyzer.Bins()),
		sums:     make([]float64, cfg.NumBars),
	}
	if cfg.Window != window.TypeRectangular {
		r.coeffs = window.Generate(cfg.Window, cfg.ChunkSize, window.WithPeriodic())
	}

	return r, nil
}

// Validate reports whether c describes a usable reduction.
func (c Config) Validate() error {
	var errs []error
	if c.ChunkSize < 2 || !spectrum.IsPowerOf2(c.ChunkSize) {
		errs = append(errs, fmt.Errorf("bars: chunk size must be a power of two >= 2: %d", c.ChunkSize))
	}
	if c.Channels <= 0 {
		errs = append(errs, fmt.Errorf("bars: channels must be > 0: %d", c.Channels))
	}
	if c.NumBars <= 0 {
		errs = append(errs, fmt.Errorf("bars: bar count must be > 0: %d", c.NumBars))
	}
	if c.Truncation <= 0 {
		errs = append(errs, fmt.Errorf("bars: truncation must be > 0: %d", c.Truncation))
	}
	if !(c.ScaleDivisor > 0) || math.IsInf(c.ScaleDivisor, 0) {
		errs = append(errs, fmt.Errorf("bars: scale divisor must be finite and > 0: %v", c.ScaleDivisor))
	}
	return errors.Join(errs...)
}

// Config returns the reduction parameters in use.
func (r *Reducer) Config() Config { return r.cfg }

// Reduce returns the band levels of one interleaved block.
func (r *Reducer) Reduce(block []int16) (Levels, error) {
	return r.ReduceInto(nil, block)
}

// ReduceInto is Reduce writing into dst, which is grown if needed.
func (r *Reducer) ReduceInto(dst Levels, block []int16) (Levels, error) {
	if len(block) != r.cfg.BlockLen() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBlockSize, len(block), r.cfg.BlockLen())
	}

	r.mono = pcm.SelectChannel(r.mono, block, r.cfg.Channels, 0)
	r.samples = pcm.ToFloat64(r.samples, r.mono)
	if r.coeffs != nil {
		if err := window.ApplyCoefficientsInPlace(r.samples, r.coeffs); err != nil {
			return nil, fmt.Errorf("bars: %w", err)
		}
	}

	mag, err := r.analyzer.Magnitudes(r.mag, r.samples)
	if err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}
	r.mag = mag

	return r.reduceMagnitudes(dst, mag), nil
}

// ReduceMagnitudes applies truncation, band split and quantization to a
// precomputed one-sided magnitude spectrum.
func (r *Reducer) ReduceMagnitudes(mag []float64) Levels {
	return r.reduceMagnitudes(nil, mag)
}

func (r *Reducer) reduceMagnitudes(dst Levels, mag []float64) Levels {
	n := min(len(mag), r.cfg.Truncation)

	ranges := r.ranges
	if n != r.cfg.Bins() {
		ranges = spectrum.SplitEven(n, r.cfg.NumBars)
	}

	r.sums = spectrum.SumRanges(r.sums, mag[:n], ranges)

	if cap(dst) < r.cfg.NumBars {
		dst = make(Levels, r.cfg.NumBars)
	}
	dst = dst[:r.cfg.NumBars]
	for i, sum := range r.sums {
		dst[i] = Quantize(sum, r.cfg.ScaleDivisor)
	}

	return dst
}

// Band describes which spectrum bins feed one output level.
type Band struct {
	Index  int
	Bins   spectrum.Range
	LowHz  float64
	HighHz float64
}

// Layout returns the bin and frequency span of every band at sampleRate.
// Frequencies are bin centers; an empty band reports its start frequency
// for both edges.
func (c Config) Layout(sampleRate float64) []Band {
	ranges := spectrum.SplitEven(c.Bins(), c.NumBars)
	out := make([]Band, len(ranges))
	for i, rg := range ranges {
		low := spectrum.BinFrequency(rg.Start, c.ChunkSize, sampleRate)
		high := low
		if rg.Len() > 0 {
			high = spectrum.BinFrequency(rg.End-1, c.ChunkSize, sampleRate)
		}
		out[i] = Band{Index: i, Bins: rg, LowHz: low, HighHz: high}
	}
	return out
}

// Peak returns the index and magnitude of the strongest kept bin of the
// last reduced block. It is meant for debug logging.
func (r *Reducer) Peak() (bin int, magnitude float64) {
	n := min(len(r.mag), r.cfg.Bins())
	for i := 0; i < n; i++ {
		if r.mag[i] > magnitude {
			bin, magnitude = i, r.mag[i]
		}
	}
	return bin, magnitude
}
