// Package core holds small numeric helpers shared by the dsp packages.
package core

import "math"

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// TruncateToByte truncates x toward zero and saturates it into [0, 255].
// NaN maps to 0.
func TruncateToByte(x float64) uint8 {
	if math.IsNaN(x) {
		return 0
	}

	return uint8(math.Trunc(Clamp(x, 0, math.MaxUint8)))
}
