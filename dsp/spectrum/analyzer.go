package spectrum

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/barlink/dsp/core"
)

// ErrLengthMismatch is returned when an input block does not match the
// analyzer's FFT size.
var ErrLengthMismatch = errors.New("spectrum: input length does not match fft size")

// ErrSize is returned for analyzer sizes that are not a power of two.
var ErrSize = errors.New("spectrum: fft size must be a power of two")

// IsPowerOf2 reports whether n is a positive power of two.
func IsPowerOf2(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// RealAnalyzer computes one-sided magnitude spectra of real-valued blocks.
//
// The result for an N-point block has N/2+1 bins (DC through Nyquist), the
// same shape as a real-input FFT. The analyzer reuses its FFT plan and
// scratch buffers between calls and is therefore not safe for concurrent use.
type RealAnalyzer struct {
	size int
	plan *algofft.Plan[complex128]

	in  []complex128
	out []complex128
}

// NewRealAnalyzer creates an analyzer for blocks of size samples. size must
// be a power of two; other lengths are rejected with ErrSize.
func NewRealAnalyzer(size int) (*RealAnalyzer, error) {
	if !IsPowerOf2(size) {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: init fft plan: %w", err)
	}

	return &RealAnalyzer{
		size: size,
		plan: plan,
		in:   make([]complex128, size),
		out:  make([]complex128, size),
	}, nil
}

// Size returns the FFT size in samples.
func (a *RealAnalyzer) Size() int { return a.size }

// Bins returns the number of one-sided magnitude bins, Size()/2+1.
func (a *RealAnalyzer) Bins() int { return a.size/2 + 1 }

// Magnitudes writes |X[k]| for k in [0, Size()/2] into dst and returns it.
// dst is grown when its capacity is too small.
func (a *RealAnalyzer) Magnitudes(dst, samples []float64) ([]float64, error) {
	if len(samples) != a.size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(samples), a.size)
	}

	for i, s := range samples {
		a.in[i] = complex(s, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return nil, fmt.Errorf("spectrum: forward fft: %w", err)
	}

	bins := a.Bins()
	dst = core.EnsureLen(dst, bins)

	magnitudeInto(dst, a.out[:bins])

	return dst, nil
}

// BinFrequency returns the center frequency in Hz of bin k for an FFT of
// size samples at sampleRate.
func BinFrequency(k, size int, sampleRate float64) float64 {
	if size <= 0 {
		return 0
	}
	return float64(k) * sampleRate / float64(size)
}
