// Package pcm converts between raw signed 16-bit PCM bytes, interleaved
// sample slices and float blocks.
//
// Functions take a destination slice and return it resliced, growing it only
// when its capacity is too small, so capture loops can run without
// per-block allocation.
package pcm

import (
	"encoding/binary"

	"github.com/cwbudde/barlink/dsp/core"
)

// BytesPerSample is the size of one s16 sample.
const BytesPerSample = 2

// DecodeS16LE decodes little-endian signed 16-bit samples from src into dst
// and returns the number of samples written. A trailing odd byte is ignored.
func DecodeS16LE(dst []int16, src []byte) int {
	n := min(len(dst), len(src)/BytesPerSample)
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(src[BytesPerSample*i:]))
	}
	return n
}

// EncodeS16LE encodes src as little-endian signed 16-bit samples into dst
// and returns the number of samples written.
func EncodeS16LE(dst []byte, src []int16) int {
	n := min(len(dst)/BytesPerSample, len(src))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[BytesPerSample*i:], uint16(src[i]))
	}
	return n
}

// SelectChannel extracts channel ch from an interleaved block by stride
// selection: interleaved[ch], interleaved[ch+channels], ... The result has
// len(interleaved)/channels samples. No mixing takes place, so selecting
// channel 0 of a stereo block yields the left channel only.
func SelectChannel(dst, interleaved []int16, channels, ch int) []int16 {
	if channels <= 0 || ch < 0 || ch >= channels {
		return dst[:0]
	}

	frames := len(interleaved) / channels
	if cap(dst) < frames {
		dst = make([]int16, frames)
	}
	dst = dst[:frames]

	for i := range dst {
		dst[i] = interleaved[i*channels+ch]
	}

	return dst
}

// ToFloat64 converts samples to float64 without rescaling, so a full-scale
// sample stays at 32767.
func ToFloat64(dst []float64, src []int16) []float64 {
	dst = core.EnsureLen(dst, len(src))
	for i, v := range src {
		dst[i] = float64(v)
	}

	return dst
}
