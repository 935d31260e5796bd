// Package level measures the loudness of raw s16 capture blocks.
//
// Levels are reported in dBFS, where 0 dBFS is a full-scale 16-bit sample.
package level

import "math"

// FullScale is the magnitude of the most negative 16-bit sample.
const FullScale = 32768.0

// Floor is reported instead of -Inf for digital silence so that values can
// be fed to histograms.
const Floor = -120.0

// Block holds the statistics of one interleaved block.
type Block struct {
	RMS      float64 // linear, in sample units
	Peak     float64 // max |x|, in sample units
	RMSdBFS  float64
	PeakdBFS float64
}

// Silent reports whether every sample of the block was zero.
func (b Block) Silent() bool { return b.Peak == 0 }

// DBFS converts a sample-unit amplitude to dBFS, clamped below at Floor.
func DBFS(amplitude float64) float64 {
	a := math.Abs(amplitude)
	if a == 0 {
		return Floor
	}
	return max(20*math.Log10(a/FullScale), Floor)
}

// Measure computes RMS and peak over every sample of block, all channels
// together.
func Measure(block []int16) Block {
	if len(block) == 0 {
		return Block{RMSdBFS: Floor, PeakdBFS: Floor}
	}

	var sumSq, peak float64
	for _, s := range block {
		x := float64(s)
		sumSq += x * x
		peak = max(peak, math.Abs(x))
	}

	rms := math.Sqrt(sumSq / float64(len(block)))
	return Block{
		RMS:      rms,
		Peak:     peak,
		RMSdBFS:  DBFS(rms),
		PeakdBFS: DBFS(peak),
	}
}

// SilenceDetector tracks runs of silent blocks.
//
// A block counts as silent when its peak is at or below Threshold dBFS.
type SilenceDetector struct {
	Threshold float64
	// After is the number of consecutive silent blocks that make a run.
	After int

	run      int
	reported bool
}

// NewSilenceDetector reports runs of after blocks that stay at or below
// threshold dBFS.
func NewSilenceDetector(threshold float64, after int) *SilenceDetector {
	return &SilenceDetector{Threshold: threshold, After: after}
}

// Observe feeds one block. It returns true exactly once per silent run, on
// the block that reaches After. Any louder block ends the run.
func (d *SilenceDetector) Observe(b Block) bool {
	if d.After <= 0 {
		return false
	}
	if b.PeakdBFS > d.Threshold {
		d.run = 0
		d.reported = false
		return false
	}
	d.run++
	if d.run >= d.After && !d.reported {
		d.reported = true
		return true
	}
	return false
}

// Run returns the length of the current silent run in blocks.
func (d *SilenceDetector) Run() int { return d.run }
