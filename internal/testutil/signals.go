package testutil

import (
	"fmt"
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// QuantizeS16 rounds x to signed 16-bit samples, saturating at the limits.
func QuantizeS16(x []float64) []int16 {
	out := make([]int16, len(x))
	for i, v := range x {
		r := math.Round(v)
		switch {
		case r > math.MaxInt16:
			out[i] = math.MaxInt16
		case r < math.MinInt16:
			out[i] = math.MinInt16
		default:
			out[i] = int16(r)
		}
	}
	return out
}

// Interleave builds an interleaved stereo block from two channels.
// The shorter channel is zero-extended.
func Interleave(left, right []int16) []int16 {
	n := max(len(left), len(right))
	out := make([]int16, 2*n)
	for i := 0; i < n; i++ {
		if i < len(left) {
			out[2*i] = left[i]
		}
		if i < len(right) {
			out[2*i+1] = right[i]
		}
	}
	return out
}

// SizeName formats a block size for sub-benchmark names (256, 1K, 4K).
func SizeName(n int) string {
	if n >= 1024 && n%1024 == 0 {
		return fmt.Sprintf("%dK", n/1024)
	}
	return fmt.Sprintf("%d", n)
}
