// Package bars reduces interleaved PCM blocks to a handful of byte-sized
// band levels and frames them for a serial bar display.
//
// A block is reduced in fixed steps: keep channel 0 (the left channel of a
// stereo block, no averaging), take the one-sided FFT magnitude, keep the
// lowest Truncation bins, split them into NumBars contiguous bands of
// near-equal width, sum each band, divide by ScaleDivisor, truncate toward
// zero and saturate into [0, 255].
package bars
