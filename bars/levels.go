package bars

import (
	"github.com/cwbudde/barlink/dsp/core"
)

// Levels holds one intensity per band, lowest frequency first.
type Levels []uint8

// Quantize divides a band sum by divisor, truncates toward zero and
// saturates the result into [0, 255].
func Quantize(sum, divisor float64) uint8 {
	return core.TruncateToByte(sum / divisor)
}

// Max returns the largest level, or 0 for an empty slice.
func (l Levels) Max() uint8 {
	var m uint8
	for _, v := range l {
		m = max(m, v)
	}
	return m
}
