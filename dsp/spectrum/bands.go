package spectrum

// Range is a half-open bin interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of bins covered by r.
func (r Range) Len() int { return r.End - r.Start }

// SplitEven partitions n bins into parts contiguous ranges whose lengths
// differ by at most one. The first n%parts ranges carry the extra bin. When
// n < parts the trailing ranges are empty.
func SplitEven(n, parts int) []Range {
	if parts <= 0 {
		return nil
	}
	if n < 0 {
		n = 0
	}

	q, r := n/parts, n%parts
	out := make([]Range, parts)

	start := 0
	for i := range out {
		size := q
		if i < r {
			size++
		}
		out[i] = Range{Start: start, End: start + size}
		start += size
	}

	return out
}

// SumRanges writes the sum of values over each range into dst and returns
// it. Ranges reaching past len(values) are clipped.
func SumRanges(dst, values []float64, ranges []Range) []float64 {
	if cap(dst) < len(ranges) {
		dst = make([]float64, len(ranges))
	}
	dst = dst[:len(ranges)]

	for i, rg := range ranges {
		end := min(rg.End, len(values))
		sum := 0.0
		for j := rg.Start; j < end; j++ {
			sum += values[j]
		}
		dst[i] = sum
	}

	return dst
}
